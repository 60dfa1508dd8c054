package config

type WorkerKeyStruct struct {
	PersistEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistEventsQueue: "persist_exam_events_queue",
}
