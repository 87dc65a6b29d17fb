package worker

import (
	"fmt"

	"go.uber.org/zap"
)

// asynqLogger adapts a zap SugaredLogger to asynq.Logger.
type asynqLogger struct {
	log *zap.SugaredLogger
}

func (a *asynqLogger) Debug(args ...interface{}) { a.log.Debug(fmt.Sprint(args...)) }
func (a *asynqLogger) Info(args ...interface{})  { a.log.Info(fmt.Sprint(args...)) }
func (a *asynqLogger) Warn(args ...interface{})  { a.log.Warn(fmt.Sprint(args...)) }
func (a *asynqLogger) Error(args ...interface{}) { a.log.Error(fmt.Sprint(args...)) }
func (a *asynqLogger) Fatal(args ...interface{}) { a.log.Fatal(fmt.Sprint(args...)) }
