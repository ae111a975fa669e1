package entity

type State string

const (
	StateUploaded       State = "UPLOADED"
	StateParsed         State = "PARSED"
	StateCleaned        State = "CLEANED"
	StateColumnSelected State = "COLUMN_SELECTED"
	StateVisualized     State = "VISUALIZED"
	StateExported       State = "EXPORTED"
)

type Step string

const (
	StepParse            Step = "parse"
	StepRemoveDuplicates Step = "remove_duplicates"
	StepFillMissing      Step = "fill_missing"
	StepSelectColumns    Step = "select_columns"
	StepVisualize        Step = "visualize"
	StepExport           Step = "export"
)

// State reports which lifecycle state a step moves an entry into.
func (s Step) State() State {
	switch s {
	case StepParse:
		return StateParsed
	case StepRemoveDuplicates, StepFillMissing:
		return StateCleaned
	case StepSelectColumns:
		return StateColumnSelected
	case StepVisualize:
		return StateVisualized
	case StepExport:
		return StateExported
	default:
		return StateUploaded
	}
}

// ViewSource selects which revision the chart and column defaults read.
type ViewSource string

const (
	ViewCommitted ViewSource = "committed"
	ViewOriginal  ViewSource = "original"
)

func ParseViewSource(v string) ViewSource {
	if ViewSource(v) == ViewOriginal {
		return ViewOriginal
	}
	return ViewCommitted
}
