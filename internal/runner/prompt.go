package runner

import (
	"fmt"

	"github.com/jusunglee/openeval/internal/dataset"
)

type Mode string

const (
	ModeBase     Mode = "base"
	ModeInstruct Mode = "instruct"
)

const basePreamble = "Complete the following function:\n"

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBase, ModeInstruct:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q: want %q or %q", s, ModeBase, ModeInstruct)
}

// BuildPrompt renders the text sent to the model for a sample. Base mode asks
// for a continuation of the code prompt; instruct mode sends the natural
// language instruction as is.
func BuildPrompt(mode Mode, s dataset.Sample) (string, error) {
	switch mode {
	case ModeBase:
		if err := s.Require("prompt"); err != nil {
			return "", err
		}
		return basePreamble + s.Prompt(), nil
	case ModeInstruct:
		if err := s.Require("instruction"); err != nil {
			return "", err
		}
		return s.Instruction(), nil
	}
	return "", fmt.Errorf("invalid mode %q", mode)
}
