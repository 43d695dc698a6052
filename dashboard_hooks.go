package main

import (
	"symreg/gp"
	"symreg/logx"
)

// GenerationData is the per-generation websocket payload.
type GenerationData struct {
	Iteration   int         `json:"iteration"`
	Best        reportFloat `json:"best"`
	Stats       gp.Stats    `json:"stats"`
	Explored    int64       `json:"explored"`
	Evaluations int64       `json:"evaluations"`
	RatePerSec  float64     `json:"rate_per_sec"`
	TimeElapsed string      `json:"time_elapsed"`
}

// HallOfFameData represents hall of fame state
type HallOfFameData struct {
	K       int     `json:"k"`
	Entries []Entry `json:"entries"`
}

func SendGenerationUpdate(g logx.GenerationStats, stats gp.Stats) {
	Broadcast(MsgTypeGeneration, GenerationData{
		Iteration:   g.Iteration,
		Best:        reportFloat(g.Best),
		Stats:       stats,
		Explored:    g.Explored,
		Evaluations: g.Evaluations,
		RatePerSec:  g.Rate(),
		TimeElapsed: logx.FormatDuration(g.Elapsed),
	})
}

func SendBestUpdate(best Entry) {
	Broadcast(MsgTypeBest, best)
}

func SendHallOfFameUpdate(hof *HallOfFame) {
	Broadcast(MsgTypeHallOfFame, HallOfFameData{K: hof.K, Entries: hof.Entries()})
}

func SendStatus(status, msg string) {
	Broadcast(MsgTypeStatus, map[string]interface{}{
		"status": status,
		"msg":    msg,
	})
}

func SendError(err error) {
	Broadcast(MsgTypeError, err.Error())
}
