package notify

import (
	"github.com/sirupsen/logrus"

	"github.com/ahmedev192/skill-swap-sub000/internal/services"
)

// Dispatcher implements services.Notifier. Events fan out to the
// websocket hub and the email log; both paths are fire-and-forget and
// never surface errors to the session transaction that emitted them.
type Dispatcher struct {
	hub *Hub
	log *logrus.Logger
}

func NewDispatcher(hub *Hub, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, log: log}
}

func (d *Dispatcher) Dispatch(event services.SessionEvent) {
	go func() {
		d.hub.Broadcast(event)
		d.dispatchEmail(event)
	}()
}

// dispatchEmail stands in for the outbound mail provider. The provider
// call is logged here; wiring a real sender only changes this method.
func (d *Dispatcher) dispatchEmail(event services.SessionEvent) {
	d.log.WithFields(logrus.Fields{
		"event":      event.Type,
		"session_id": event.Session.ID,
		"teacher_id": event.Session.TeacherID,
		"student_id": event.Session.StudentID,
	}).Info("email notification dispatched")
}
