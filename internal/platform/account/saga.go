package account

import (
	"github.com/gofiber/fiber/v2/log"
)

type sagaStep struct {
	name string
	run  func() error
	undo func() error
}

// runSaga executes steps in order. When a step fails, the completed
// steps are undone in reverse; an undo failure is logged and the
// original error is still returned.
func runSaga(steps []sagaStep) error {
	for i, step := range steps {
		err := step.run()
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if undoErr := steps[j].undo(); undoErr != nil {
				log.Errorf("rollback of step %q failed: %v", steps[j].name, undoErr)
			}
		}
		return err
	}
	return nil
}
