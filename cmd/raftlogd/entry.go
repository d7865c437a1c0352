package main

import (
	"encoding/json"
	"time"
)

// demoEntry is the simplest possible raftcore.LogEntry: a JSON-serialized
// key/value write, enough to drive the dispatcher without a real
// time-series log manager behind it.
type demoEntry struct {
	index      int64
	term       uint64
	createTime time.Time
	Key        string `json:"key"`
	Value      string `json:"value"`
}

func newDemoEntry(index int64, term uint64, key, value string) *demoEntry {
	return &demoEntry{index: index, term: term, createTime: time.Now(), Key: key, Value: value}
}

func (e *demoEntry) CurrentIndex() int64   { return e.index }
func (e *demoEntry) Term() uint64          { return e.term }
func (e *demoEntry) CreateTime() time.Time { return e.createTime }

func (e *demoEntry) Serialize() ([]byte, error) {
	return json.Marshal(e)
}
