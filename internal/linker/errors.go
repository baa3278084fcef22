package linker

import (
	"fmt"

	"github.com/wikimedia/research-mwaddlink/pkg/utils"
)

// MentionOffsetError reports that a mention accepted for insertion could not
// be re-located in the original document text. It signals a tokenization /
// case-folding mismatch and aborts the whole request: partial results would
// carry wrong offsets.
type MentionOffsetError struct {
	Mention string
	Context string
}

func (e *MentionOffsetError) Error() string {
	return fmt.Sprintf("unable to locate mention %q in %q",
		e.Mention, utils.Truncate(e.Context, 120))
}
