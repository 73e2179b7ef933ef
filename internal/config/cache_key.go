package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentEventsChannel returns the Redis PubSub channel carrying registration events.
func (r *CacheKeyStruct) StudentEventsChannel() string {
	return "students:events"
}

// StudentKey returns the composite identity key of a registration.
// It is what admins see as the duplicate identifier.
func (r *CacheKeyStruct) StudentKey(class, section, rollNumber string) string {
	return fmt.Sprintf("%s-%s-%s", class, section, rollNumber)
}

var CacheKey = NewCacheKeyStruct()
