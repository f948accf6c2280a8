package model

type OutlineGenerateInput struct {
	Prompt string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}
