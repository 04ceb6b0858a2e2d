package log

// FieldComponent stamps every record with the emitting subsystem.
const FieldComponent = "component"

// Component names used by the binaries.
const (
	ComponentApp        = "app"
	ComponentDispatcher = "dispatcher"
)
