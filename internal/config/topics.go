// Package config loads the relay configuration: the topics file and the
// engine settings read from the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"newsbot/internal/domain/entity"
	"newsbot/internal/infra/notifier"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TopicsFile is the on-disk layout of the topics file. The same layout is
// accepted as YAML or TOML.
type TopicsFile struct {
	Topics []TopicEntry `yaml:"topics" toml:"topics" validate:"required,min=1,dive"`
}

type TopicEntry struct {
	ID          string `yaml:"id" toml:"id" validate:"required"`
	DisplayName string `yaml:"display_name" toml:"display_name" validate:"required"`
	Emoji       string `yaml:"emoji" toml:"emoji"`
	// Destination may reference the environment, e.g. "${SLACK_WEBHOOK_URL}".
	Destination string        `yaml:"destination" toml:"destination" validate:"required"`
	Sources     []SourceEntry `yaml:"sources" toml:"sources" validate:"required,min=1,dive"`
}

type SourceEntry struct {
	Name    string `yaml:"name" toml:"name" validate:"required"`
	URL     string `yaml:"url" toml:"url" validate:"required,url"`
	Enabled *bool  `yaml:"enabled" toml:"enabled"`
}

// IsEnabled defaults to true when the flag is absent.
func (s SourceEntry) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Format is a topics file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the encoding from the file extension; anything other than
// .toml is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// LoadTopics reads, validates and converts the topics file at path.
// Every problem is reported as entity.ErrConfiguration.
func LoadTopics(path string) ([]entity.TopicConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("%w: read topics file: %w", entity.ErrConfiguration, err)
	}
	topics, err := ParseTopics(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return topics, nil
}

// ParseTopics decodes data in the given format and converts it to topic
// configurations in file order.
func ParseTopics(data []byte, format Format) ([]entity.TopicConfig, error) {
	var file TopicsFile
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("%w: decode toml: %w", entity.ErrConfiguration, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %w", entity.ErrConfiguration, err)
		}
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrConfiguration, describeValidation(err))
	}
	return file.toTopicConfigs()
}

func (f TopicsFile) toTopicConfigs() ([]entity.TopicConfig, error) {
	seen := make(map[entity.TopicID]bool, len(f.Topics))
	out := make([]entity.TopicConfig, 0, len(f.Topics))

	for _, t := range f.Topics {
		id, err := entity.ParseTopicID(t.ID)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: topic %q is declared twice", entity.ErrConfiguration, id)
		}
		seen[id] = true

		dest := strings.TrimSpace(os.ExpandEnv(t.Destination))
		if err := notifier.ValidateWebhookURL(dest); err != nil {
			return nil, fmt.Errorf("topic %q: %w", id, err)
		}

		tc := entity.TopicConfig{
			ID:          id,
			DisplayName: t.DisplayName,
			Emoji:       t.Emoji,
			Destination: dest,
		}
		for _, s := range t.Sources {
			if !s.IsEnabled() {
				continue
			}
			tc.Sources = append(tc.Sources, entity.Source{Name: s.Name, URL: s.URL, Topic: id})
		}
		if err := tc.Validate(); err != nil {
			return nil, fmt.Errorf("topic %q: %w", id, err)
		}
		out = append(out, tc)
	}
	return out, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
