package models

import (
	"path/filepath"
	"strings"

	"dreamlayer/image"

	"github.com/google/uuid"
)

// CheckpointExtensions are the weight file types offered as models.
var CheckpointExtensions = []string{".safetensors", ".ckpt", ".pt", ".pth", ".bin"}

type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// ID derives a stable identifier from the file name, so the same checkpoint
// keeps its id across restarts.
func ID(filename string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("dreamlayer:checkpoint:"+filename)).String()
}

// FromFilenames builds models from bare file names.
func FromFilenames(filenames []string) []Model {
	list := make([]Model, 0, len(filenames))
	for _, filename := range filenames {
		list = append(list, Model{
			ID:       ID(filename),
			Name:     strings.TrimSuffix(filename, filepath.Ext(filename)),
			Filename: filename,
		})
	}
	return list
}

// Checkpoints lists the checkpoint files in dir.
func Checkpoints(dir string) ([]Model, error) {
	files, err := image.ListFiles(dir, CheckpointExtensions...)
	if err != nil {
		return nil, err
	}
	return FromFilenames(files), nil
}
