package button

import (
	"bufio"
	"io"
)

// Lines turns each line read from r into a press, so a terminal Enter key
// acts as the capture button. End of input closes the button.
type Lines struct {
	*Trigger
}

// NewLines starts reading r in the background.
func NewLines(r io.Reader) *Lines {
	l := &Lines{Trigger: NewTrigger()}
	go l.read(r)
	return l
}

func (l *Lines) read(r io.Reader) {
	defer l.Trigger.Close()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		l.Trigger.Press()
	}
}
