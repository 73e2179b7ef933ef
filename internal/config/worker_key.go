package config

// WorkerKeyStruct names the Redis lists consumed by background workers.
type WorkerKeyStruct struct {
	NotifyCodesQueue string
}

var WorkerKey = &WorkerKeyStruct{
	NotifyCodesQueue: "notify_codes_queue",
}
