package session

// Stage is one state of the conversation state machine. Every stage has its
// own prompt context and handler.
type Stage string

const (
	StageMain               Stage = "main"
	StageCreate             Stage = "create"
	StageConfirmation       Stage = "confirmation"
	StageUpdateConfirmation Stage = "update_confirmation"
	StageCorrect            Stage = "correct"
	StageSingleConfigItem   Stage = "single_config_item"
	StageMultipleConfigItem Stage = "multiple_config_item"
	StageEdit               Stage = "edit"
	StageUpdatingTicket     Stage = "updating_ticket"
	StageEditConfirmation   Stage = "edit_confirmation"
)

// Stages lists every valid stage.
var Stages = []Stage{
	StageMain,
	StageCreate,
	StageConfirmation,
	StageUpdateConfirmation,
	StageCorrect,
	StageSingleConfigItem,
	StageMultipleConfigItem,
	StageEdit,
	StageUpdatingTicket,
	StageEditConfirmation,
}

func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}
