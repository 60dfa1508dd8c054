package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam monitor
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

// ExamMonitorPattern matches every exam monitor channel.
func (r *CacheKeyStruct) ExamMonitorPattern() string {
	return "exam:*:monitor"
}

var CacheKey = NewCacheKeyStruct()
