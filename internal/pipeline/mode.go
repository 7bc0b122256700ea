package pipeline

import (
	"errors"
	"fmt"

	"github.com/drakos74/free-ml/internal/profile"
	"github.com/drakos74/free-ml/internal/session"
)

// Mode is one of the screens of the application, exactly one is active per session.
type Mode string

const (
	Upload    Mode = "upload"
	Profiling Mode = "profiling"
	Modeling  Mode = "modeling"
	Download  Mode = "download"
)

// Modes lists the modes in navigation order.
var Modes = []Mode{Upload, Profiling, Modeling, Download}

var (
	// ErrUnknownMode is returned for mode names outside Modes.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrUnknownOp is returned for operations without a step.
	ErrUnknownOp = errors.New("unknown operation")
	// ErrNoModel is returned when the session has no trained model.
	ErrNoModel = errors.New("no model has been trained")
	// ErrNoUpload is returned when cleaning or saving before an upload.
	ErrNoUpload = errors.New("no table has been uploaded")
)

// ParseMode reads a mode name, empty means Upload.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Upload, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("'%s': %w", s, ErrUnknownMode)
}

// Ready checks that the session can enter the mode.
// Upload is always available, profiling and modeling need a saved dataset, download needs a model.
func (m Mode) Ready(s *session.Session) error {
	switch m {
	case Upload:
		return nil
	case Profiling, Modeling:
		if s.Dataset == nil {
			return fmt.Errorf("%s: %w", m, profile.ErrNoDataset)
		}
		return nil
	case Download:
		if s.Model == nil {
			return fmt.Errorf("%s: %w", m, ErrNoModel)
		}
		return nil
	}
	return fmt.Errorf("'%s': %w", m, ErrUnknownMode)
}

// Op is an operation triggered from one of the modes.
type Op string

const (
	OpUpload   Op = "upload"
	OpClean    Op = "clean"
	OpSave     Op = "save"
	OpProfile  Op = "profile"
	OpTrain    Op = "train"
	OpDownload Op = "download"
	OpPredict  Op = "predict"
)

// modes maps every operation to the mode it belongs to.
var modes = map[Op]Mode{
	OpUpload:   Upload,
	OpClean:    Upload,
	OpSave:     Upload,
	OpProfile:  Profiling,
	OpTrain:    Modeling,
	OpDownload: Download,
	OpPredict:  Download,
}

// Mode returns the mode of the operation.
func (op Op) Mode() (Mode, error) {
	m, ok := modes[op]
	if !ok {
		return "", fmt.Errorf("'%s': %w", op, ErrUnknownOp)
	}
	return m, nil
}
