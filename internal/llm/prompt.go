package llm

import (
	"fmt"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
)

// Prompts holds the fixed instruction for each task kind.
type Prompts struct {
	Classify     string
	ExtractText  string
	ExtractTable string
}

func DefaultPrompts() Prompts {
	return Prompts{
		Classify:     common.DefaultClassifyPrompt,
		ExtractText:  common.DefaultExtractTextPrompt,
		ExtractTable: common.DefaultExtractTablePrompt,
	}
}

// PromptsFromConfig fills blanks in cfg with the defaults.
func PromptsFromConfig(cfg common.PromptConfig) Prompts {
	p := DefaultPrompts()
	if cfg.Classify != "" {
		p.Classify = cfg.Classify
	}
	if cfg.ExtractText != "" {
		p.ExtractText = cfg.ExtractText
	}
	if cfg.ExtractTable != "" {
		p.ExtractTable = cfg.ExtractTable
	}
	return p
}

// For returns the instruction for task.
func (p Prompts) For(task TaskKind) (string, error) {
	switch task {
	case TaskClassify:
		return p.Classify, nil
	case TaskExtractText:
		return p.ExtractText, nil
	case TaskExtractTable:
		return p.ExtractTable, nil
	default:
		return "", fmt.Errorf("unknown task kind %q", task)
	}
}
