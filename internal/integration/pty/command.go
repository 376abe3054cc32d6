package pty

// command is a request handled by the manager worker. Every command except
// shutdownCmd carries a reply channel with room for exactly one reply.
type command interface {
	isCommand()
}

type createCmd struct {
	rows, cols uint16
	env        *Environment
	reply      chan createReply
}

type createReply struct {
	id  ID
	err error
}

type writeCmd struct {
	id    ID
	data  []byte
	reply chan error
}

type readCmd struct {
	id    ID
	reply chan readReply
}

type readReply struct {
	data []byte
	eof  bool
	err  error
}

type resizeCmd struct {
	id         ID
	rows, cols uint16
	reply      chan error
}

type closeCmd struct {
	id    ID
	reply chan error
}

type statusCmd struct {
	id    ID
	reply chan statusReply
}

type statusReply struct {
	code *int
	err  error
}

type listCmd struct {
	reply chan []ID
}

type shutdownCmd struct{}

func (createCmd) isCommand()   {}
func (writeCmd) isCommand()    {}
func (readCmd) isCommand()     {}
func (resizeCmd) isCommand()   {}
func (closeCmd) isCommand()    {}
func (statusCmd) isCommand()   {}
func (listCmd) isCommand()     {}
func (shutdownCmd) isCommand() {}
