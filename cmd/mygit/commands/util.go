package commands

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ankitiscracked/mygit/internal/config"
	"github.com/ankitiscracked/mygit/internal/ignore"
	"github.com/ankitiscracked/mygit/internal/repo"
	"github.com/ankitiscracked/mygit/internal/ui"
)

// openRepo finds the repository for the current command, loads its
// config and builds a stderr logger at the configured level.
func openRepo(cmd *cobra.Command) (*repo.Handle, error) {
	start := flags.dir
	if start == "" {
		wd, err := deps.Getwd()
		if err != nil {
			return nil, err
		}
		start = wd
	}
	root, err := repo.Find(start)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(root, ignore.ControlDir))
	if err != nil {
		return nil, err
	}
	if !cfg.UI.Color {
		ui.Disable()
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		level = zapcore.DebugLevel
	}

	return repo.OpenAt(root,
		repo.WithConfig(cfg),
		repo.WithLogger(newLogger(cmd.ErrOrStderr(), level)),
		repo.WithIDGenerator(idGenerator()),
	)
}

func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	if ui.Enabled() {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}
