package main

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultSeed []byte

type seedFile struct {
	Subjects []seedSubject `yaml:"subjects"`
}

type seedSubject struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Topics      []seedTopic `yaml:"topics"`
}

type seedTopic struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Subtopics   []seedSubtopic `yaml:"subtopics"`
}

type seedSubtopic struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Questions   []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	Text       string       `yaml:"text"`
	Difficulty int          `yaml:"difficulty"`
	Answer     string       `yaml:"answer"`
	Options    []seedOption `yaml:"options"`
}

type seedOption struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

// decodeSeed reads a seed file. Unknown keys are rejected so a typo does
// not silently drop answers.
func decodeSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &f, nil
}

// request builds the create payload of q under the given topic and subtopic.
func (q seedQuestion) request(topicID, subtopicID identity.ID) model.QuestionRequest {
	req := model.QuestionRequest{
		TopicID:       identity.RefOf(topicID),
		SubtopicID:    identity.RefOf(subtopicID),
		QuestionText:  q.Text,
		CorrectAnswer: q.Answer,
		Difficulty:    q.Difficulty,
	}
	for _, o := range q.Options {
		req.Options = append(req.Options, model.OptionRequest{Text: o.Text, IsCorrect: o.Correct})
	}
	return req
}
