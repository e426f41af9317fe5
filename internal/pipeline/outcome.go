package pipeline

import "fmt"

// Kind classifies the result of one attempt.
type Kind int

const (
	Success Kind = iota
	ScanFailure
	ParseFailure
	GenerateFailure
	UncaughtFault
)

var kindNames = [...]string{
	Success:         "success",
	ScanFailure:     "scan_failure",
	ParseFailure:    "parse_failure",
	GenerateFailure: "generate_failure",
	UncaughtFault:   "uncaught_fault",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Stage names the pipeline stage a failure kind belongs to.
func (k Kind) Stage() string {
	switch k {
	case ScanFailure:
		return "scan"
	case ParseFailure:
		return "parse"
	case GenerateFailure:
		return "generate"
	default:
		return ""
	}
}

// Outcome is the classified result of attempting the pipeline on one path.
type Outcome struct {
	Kind    Kind
	Dialect string
	// Message is the stage's failure message, or the fault trace for
	// UncaughtFault.
	Message string
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool { return o.Kind == Success }

// Fault reports whether the attempt hit an unrecoverable fault.
func (o Outcome) Fault() bool { return o.Kind == UncaughtFault }

// Diagnostic formats the console line for a failed attempt on path.
func (o Outcome) Diagnostic(path string) string {
	switch o.Kind {
	case Success:
		return ""
	case UncaughtFault:
		return fmt.Sprintf("[%s] %s: uncaught fault:\n%s", o.Dialect, path, o.Message)
	default:
		return fmt.Sprintf("[%s] %s: %s failure: %s", o.Dialect, path, o.Kind.Stage(), o.Message)
	}
}

// Succeeded builds a success outcome.
func Succeeded(dialect string) Outcome {
	return Outcome{Kind: Success, Dialect: dialect}
}

// Failed builds a failure outcome of the given kind.
func Failed(kind Kind, dialect, message string) Outcome {
	return Outcome{Kind: kind, Dialect: dialect, Message: message}
}
