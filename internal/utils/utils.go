package utils

import "go.uber.org/zap"

// Must aborts start-up when err is set. what names the step that failed.
func Must(log *zap.SugaredLogger, err error, what string) {
	if err != nil {
		log.Fatalw("cannot "+what, "error", err)
	}
}
