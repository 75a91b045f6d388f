package generator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGenerationParse is returned when the AI response cannot be turned into
// a workflow graph even after normalization. Unlike plan parsing there is no
// fallback here: the job fails and the queue layer decides about retries.
var ErrGenerationParse = errors.New("generation response could not be parsed")

// ValidationError reports a graph that is still invalid after the single
// repair pass.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("generated workflow failed validation: %s", strings.Join(e.Violations, "; "))
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}
