package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// WarningLogger emits a warning for each non fatal oddity met during box
// construction, like a repair request falling back to a full rebuild.
var WarningLogger = log.NewWithOptions(os.Stdout, log.Options{
	Prefix: "boxtree",
	Level:  log.WarnLevel,
})

// DebugLogger traces the main steps of box-tree construction and repair.
// It is silenced by default; raise its level to log.DebugLevel to enable it.
var DebugLogger = log.NewWithOptions(os.Stdout, log.Options{
	Prefix: "boxtree",
	Level:  log.FatalLevel,
})
