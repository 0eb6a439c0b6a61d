package service

import (
	"time"

	"github.com/rs/zerolog"
)

// UseCaseObserver emits one structured line per use-case execution, with
// duration and outcome. Services call Observe at entry and invoke the
// returned func with the final error.
type UseCaseObserver struct {
	log zerolog.Logger
}

func NewUseCaseObserver(log zerolog.Logger) *UseCaseObserver {
	return &UseCaseObserver{log: log}
}

func (o *UseCaseObserver) Observe(useCase string) func(err error) {
	start := time.Now()
	return func(err error) {
		evt := o.log.Info()
		if err != nil {
			evt = o.log.Warn().Err(err)
		}
		evt.Str("use_case", useCase).
			Dur("duration", time.Since(start)).
			Msg("use case finished")
	}
}
