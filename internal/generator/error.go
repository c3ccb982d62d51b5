package generator

import (
	"errors"
	"fmt"
)

var (
	errEmptyResponse = errors.New("模型返回了空内容")
	errNoCandidates  = errors.New("没有可用的候选模型")
)

// Attempt 一次候选模型的失败记录
type Attempt struct {
	Model string
	Err   error
}

// Error 所有候选模型都失败时返回
type Error struct {
	Attempts []Attempt
}

func (e *Error) Error() string {
	if len(e.Attempts) == 0 {
		return errNoCandidates.Error()
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("all %d model candidates failed, last [%s]: %v", len(e.Attempts), last.Model, last.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Reason 面向用户的失败说明，取最后一次失败的信息
func (e *Error) Reason() string {
	if len(e.Attempts) == 0 {
		return errNoCandidates.Error()
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("%s: %v", last.Model, last.Err)
}
