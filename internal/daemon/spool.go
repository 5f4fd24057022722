package daemon

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/statusdash/statusctl/internal/mutate"
)

// spoolRequest is the wire format of a spool file: the subcommand name
// plus its flags. Optional update fields use pointers so an absent key
// is distinguishable from an empty value.
type spoolRequest struct {
	Action string `json:"action"`

	ID       string  `json:"id,omitempty"`
	Title    *string `json:"title,omitempty"`
	Status   *string `json:"status,omitempty"`
	Category *string `json:"category,omitempty"`
	Note     *string `json:"note,omitempty"`
	Progress *int    `json:"progress,omitempty"`

	Time  string `json:"time,omitempty"`
	Label string `json:"label,omitempty"`
}

// ParseSpoolFile reads a spool file and converts it to a command.
func ParseSpoolFile(path string) (mutate.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool file %s: %w", path, err)
	}
	return ParseSpoolRequest(data)
}

// ParseSpoolRequest converts raw spool JSON to a command.
func ParseSpoolRequest(data []byte) (mutate.Command, error) {
	var req spoolRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse spool request: %w", err)
	}

	switch req.Action {
	case "add":
		cmd := mutate.Add{ID: req.ID}
		if req.Title != nil {
			cmd.Title = *req.Title
		}
		if req.Category != nil {
			cmd.Category = *req.Category
		}
		if req.Note != nil {
			cmd.Note = *req.Note
		}
		return cmd, nil
	case "update":
		return mutate.Update{
			ID:       req.ID,
			Title:    req.Title,
			Status:   req.Status,
			Category: req.Category,
			Note:     req.Note,
			Progress: req.Progress,
		}, nil
	case "done":
		return mutate.Done{ID: req.ID}, nil
	case "schedule":
		return mutate.Schedule{Time: req.Time, Label: req.Label}, nil
	case "remove":
		return mutate.Remove{ID: req.ID}, nil
	case "remove-schedule":
		return mutate.RemoveSchedule{Time: req.Time}, nil
	case "":
		return nil, fmt.Errorf("spool request missing action")
	default:
		return nil, fmt.Errorf("unknown spool action %q", req.Action)
	}
}
