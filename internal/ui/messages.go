package ui

import (
	"versereel/internal/model"
	"versereel/internal/progress"
)

type batchStartedMsg struct {
	B progress.BatchInfo
}

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

type batchDoneMsg struct {
	Res model.BatchResult
	Err error
}

type allDoneMsg struct{}
