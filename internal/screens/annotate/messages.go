package annotate

import (
	"github.com/abhisek/stepwise/internal/annotation"
)

// annotationMsg carries the result of Start or SubmitGuidance.
type annotationMsg struct {
	Annotation *annotation.Annotation
	Err        error
}

// finalizedMsg is sent when the verdict has been stored.
type finalizedMsg struct {
	Annotation *annotation.Annotation
	Err        error
}

// discardedMsg is sent when the problem has been discarded.
type discardedMsg struct {
	Err error
}
