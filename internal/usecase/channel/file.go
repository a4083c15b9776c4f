package channel

import (
	"fmt"
	"os"

	"postlabor-feed/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

type channelFile struct {
	Channels []entity.MediaChannel `yaml:"channels"`
}

// LoadFile reads a channel list from a YAML file of the form
//
//	channels:
//	  - id: "1"
//	    type: image
//	    src: /images/memes/Gemini_Generated_Image_2742nu2742nu2742.png
//	    title: "When Even Robots Miss the Office"
//
// Missing channel numbers are filled in from the list position.
func LoadFile(path string) ([]entity.MediaChannel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML channel list.
func Parse(data []byte) ([]entity.MediaChannel, error) {
	var f channelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channel file: %w", err)
	}
	if len(f.Channels) == 0 {
		return nil, fmt.Errorf("%w: channel file lists no channels", entity.ErrInvalidInput)
	}
	for i := range f.Channels {
		if f.Channels[i].Number == 0 {
			f.Channels[i].Number = i + 1
		}
		if f.Channels[i].ID == "" {
			f.Channels[i].ID = fmt.Sprintf("%d", f.Channels[i].Number)
		}
		if err := f.Channels[i].Validate(); err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
	}
	return f.Channels, nil
}

// Load returns the channels of path, or the built-in list when path is empty.
func Load(path string) ([]entity.MediaChannel, error) {
	if path == "" {
		return entity.DefaultMediaChannels(), nil
	}
	return LoadFile(path)
}
