package main

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/tkanos/gonfig"
)

type ServerConfig struct {
	Host string `json:"host"`
	Port string `json:"port"`
}

type ImagesConfig struct {
	Path  string   `json:"path"`
	Types []string `json:"types"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type TaggingConfig struct {
	Question     string                   `json:"question"`
	MultiSelect  bool                     `json:"multi_select"`
	AllowRemarks bool                     `json:"allow_remarks"`
	Separator    string                   `json:"separator"`
	Tags         []map[string]interface{} `json:"tags"`
}

type InterfaceConfig struct {
	MaxWidth  int `json:"max_width"`
	MaxHeight int `json:"max_height"`
}

type ConfigFile struct {
	Server    ServerConfig    `json:"server"`
	Images    ImagesConfig    `json:"images"`
	Database  DatabaseConfig  `json:"database"`
	Tagging   TaggingConfig   `json:"tagging"`
	Interface InterfaceConfig `json:"interface"`

	// TagSet is Tagging.Tags decoded into typed values.
	TagSet []Tag `json:"-"`
}

// Tag is one selectable label with an optional single-key shortcut.
type Tag struct {
	Name     string `mapstructure:"name"`
	Shortcut string `mapstructure:"shortcut"`
}

func loadConfig(fileName string) (*ConfigFile, error) {
	configuration := ConfigFile{}
	err := gonfig.GetConf(fileName, &configuration)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", fileName, err)
	}
	applyDefaults(&configuration)
	configuration.TagSet, err = decodeTags(configuration.Tagging.Tags)
	if err != nil {
		return nil, err
	}
	if err = validateConfig(&configuration); err != nil {
		return nil, err
	}
	return &configuration, nil
}

func applyDefaults(configuration *ConfigFile) {
	if configuration.Server.Host == "" {
		configuration.Server.Host = "127.0.0.1"
	}
	if configuration.Server.Port == "" {
		configuration.Server.Port = "8080"
	}
	if len(configuration.Images.Types) == 0 {
		configuration.Images.Types = []string{"jpg"}
	}
	if configuration.Database.Path == "" {
		configuration.Database.Path = "image_tags.db"
	}
	if configuration.Tagging.Question == "" {
		configuration.Tagging.Question = "Select tags:"
	}
	if configuration.Tagging.Separator == "" {
		configuration.Tagging.Separator = ", "
	}
	if configuration.Interface.MaxWidth == 0 {
		configuration.Interface.MaxWidth = 600
	}
	if configuration.Interface.MaxHeight == 0 {
		configuration.Interface.MaxHeight = 700
	}
}

// decodeTags turns the raw tag entries from the configuration file into Tag
// values. Decoding is weakly typed because a shortcut like "1" or "y" may
// arrive from the YAML parser as a non-string scalar.
func decodeTags(raw []map[string]interface{}) ([]Tag, error) {
	tags := make([]Tag, 0, len(raw))
	for i, entry := range raw {
		var tag Tag
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &tag,
		})
		if err != nil {
			return nil, err
		}
		if err = decoder.Decode(entry); err != nil {
			return nil, fmt.Errorf("tag entry %d: %w", i+1, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func validateConfig(configuration *ConfigFile) error {
	if configuration.Images.Path == "" {
		return fmt.Errorf("missing key 'images/path' in configuration")
	}
	if len(configuration.TagSet) == 0 {
		return fmt.Errorf("could not read any tags from the configuration file")
	}
	names := map[string]bool{}
	shortcuts := map[string]bool{}
	for _, tag := range configuration.TagSet {
		if tag.Name == "" {
			return fmt.Errorf("tag with empty name in configuration")
		}
		if strings.Contains(tag.Name, configuration.Tagging.Separator) {
			return fmt.Errorf("tag name '%s' must not contain the separator '%s'",
				tag.Name, configuration.Tagging.Separator)
		}
		if names[tag.Name] {
			return fmt.Errorf("duplicate tag name '%s'", tag.Name)
		}
		names[tag.Name] = true
		if tag.Shortcut == "" {
			continue
		}
		if len([]rune(tag.Shortcut)) > 1 {
			return fmt.Errorf("shortcut for tag '%s' must be a single character", tag.Name)
		}
		if shortcuts[tag.Shortcut] {
			return fmt.Errorf("duplicate shortcut '%s'", tag.Shortcut)
		}
		shortcuts[tag.Shortcut] = true
	}
	return nil
}
