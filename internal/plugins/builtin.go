package plugins

// DefaultRegistry returns a registry populated with the built-in component
// types. Embedders add their own on top before validation.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterInput("clock", newClockInput)
	r.RegisterInput("mock", newMockInput)

	r.RegisterConnector("speak", newSpeakConnector)
	r.RegisterConnector("move", newMoveConnector)
	r.RegisterConnector("remember_location", newRememberLocationConnector)
	r.RegisterConnector("goto_location", newGotoLocationConnector)

	r.RegisterBackground("approaching_person", newApproachingPerson)
	r.RegisterBackground("bus_probe", newBusProbe)

	r.RegisterSimulator("log", newLogSimulator)
	r.RegisterSimulator("broadcast", newBroadcastSimulator)

	return r
}
