package protocol

// NoOpHandler implements MessageHandler with no-op methods.
// Embed this and override only the methods you need.
type NoOpHandler struct{}

func (NoOpHandler) HandleRobotRegister(*Envelope, *RobotRegister)       {}
func (NoOpHandler) HandleLocationRegister(*Envelope, *LocationRegister) {}
func (NoOpHandler) HandleCommandEnqueue(*Envelope, *CommandEnqueue)     {}
func (NoOpHandler) HandleAssignGlobal(*Envelope, *AssignGlobal)         {}
func (NoOpHandler) HandleCommandPull(*Envelope, *CommandPull)           {}
func (NoOpHandler) HandleCommandComplete(*Envelope, *CommandComplete)   {}
func (NoOpHandler) HandleTaskOffer(*Envelope, *TaskOffer)               {}
func (NoOpHandler) HandleLocationStatus(*Envelope, *LocationStatus)     {}
func (NoOpHandler) HandleCommandAssigned(*Envelope, *CommandAssigned)   {}
func (NoOpHandler) HandleOpAck(*Envelope, *OpAck)                       {}
func (NoOpHandler) HandleOpError(*Envelope, *OpError)                   {}
func (NoOpHandler) HandleNotification(*Envelope, *Notification)         {}

// Compile-time check that NoOpHandler implements MessageHandler.
var _ MessageHandler = NoOpHandler{}
