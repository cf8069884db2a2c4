package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/agrivance/agrivance/internal/inventory"
	"github.com/agrivance/agrivance/internal/tasks"
	"github.com/agrivance/agrivance/internal/weather"
)

// ErrModel indicates the model request itself failed.
var ErrModel = errors.New("assistant: model request failed")

const systemPrompt = `You are AgriVance, an assistant for a farm operations team.
Answer questions about inventory, shipments, production tasks and weather.
Use the provided tools when the user asks about stock levels or wants work
scheduled. Keep answers short and practical. Decline topics unrelated to
farm operations.`

// maxToolRounds bounds the tool-calling loop; one round covers every
// observed conversation shape.
const maxToolRounds = 3

// InventoryPort is the slice of the inventory service the tools need.
type InventoryPort interface {
	TotalQuantity(ctx context.Context, name string) (float64, inventory.Unit, error)
}

// TaskPort is the slice of the task service the tools need.
type TaskPort interface {
	Schedule(ctx context.Context, title, date string, category tasks.Category) (tasks.Task, error)
}

// WeatherPort supplies forecasts for planting suggestions.
type WeatherPort interface {
	ForecastByCity(ctx context.Context, city string) (weather.Forecast, error)
}

// Service runs the tool-calling conversation loop.
type Service struct {
	logger    *slog.Logger
	chat      Chatter
	model     anthropic.Model
	inventory InventoryPort
	tasks     TaskPort
	weather   WeatherPort
}

// NewService constructs Service.
func NewService(logger *slog.Logger, chat Chatter, model string, inv InventoryPort, tsk TaskPort, wth WeatherPort) *Service {
	return &Service{
		logger:    logger,
		chat:      chat,
		model:     anthropic.Model(model),
		inventory: inv,
		tasks:     tsk,
		weather:   wth,
	}
}

func toolDefinitions() []anthropic.ToolDefinition {
	return []anthropic.ToolDefinition{
		{
			Name:        "get_inventory_quantity",
			Description: "Get the total quantity of an inventory item summed across all locations.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"item_name": map[string]any{
						"type":        "string",
						"description": "Name of the inventory item, e.g. Corn",
					},
				},
				"required": []string{"item_name"},
			},
		},
		{
			Name:        "schedule_task",
			Description: "Put a work item on the production calendar.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"date":  map[string]any{"type": "string", "description": "YYYY-MM-DD"},
					"category": map[string]any{
						"type": "string",
						"enum": []string{"Planting", "Harvesting", "Maintenance", "Logistics"},
					},
				},
				"required": []string{"title", "date", "category"},
			},
		},
	}
}

// Query answers a free-form question, letting the model call tools until
// it produces a final text answer.
func (s *Service) Query(ctx context.Context, query string) (string, error) {
	messages := []anthropic.Message{anthropic.NewUserTextMessage(query)}

	for round := 0; round <= maxToolRounds; round++ {
		resp, err := s.chat.Chat(ctx, anthropic.MessagesRequest{
			Model:     s.model,
			System:    systemPrompt,
			MaxTokens: 1024,
			Messages:  messages,
			Tools:     toolDefinitions(),
		})
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrModel, err)
		}

		if resp.StopReason != anthropic.MessagesStopReasonToolUse {
			return collectText(resp.Content), nil
		}

		messages = append(messages, anthropic.Message{Role: anthropic.RoleAssistant, Content: resp.Content})
		for _, content := range resp.Content {
			if content.Type != anthropic.MessagesContentTypeToolUse || content.MessageContentToolUse == nil {
				continue
			}
			messages = append(messages, s.runTool(ctx, content.MessageContentToolUse))
		}
	}
	return "", fmt.Errorf("%w: tool loop did not converge", ErrModel)
}

// runTool executes one tool call. Tool failures are reported back to the
// model as error results rather than aborting the conversation.
func (s *Service) runTool(ctx context.Context, call *anthropic.MessageContentToolUse) anthropic.Message {
	switch call.Name {
	case "get_inventory_quantity":
		var input struct {
			ItemName string `json:"item_name"`
		}
		if err := call.UnmarshalInput(&input); err != nil {
			return anthropic.NewToolResultsMessage(call.ID, "invalid tool input: "+err.Error(), true)
		}
		total, unit, err := s.inventory.TotalQuantity(ctx, input.ItemName)
		if errors.Is(err, inventory.ErrRowNotFound) {
			return anthropic.NewToolResultsMessage(call.ID,
				fmt.Sprintf("no inventory rows found for %q", input.ItemName), true)
		}
		if err != nil {
			s.logger.Error("inventory tool failed", "error", err, "item", input.ItemName)
			return anthropic.NewToolResultsMessage(call.ID, "inventory lookup failed", true)
		}
		return anthropic.NewToolResultsMessage(call.ID,
			fmt.Sprintf("%g %s of %s in stock across all locations", total, unit, input.ItemName), false)

	case "schedule_task":
		var input struct {
			Title    string `json:"title"`
			Date     string `json:"date"`
			Category string `json:"category"`
		}
		if err := call.UnmarshalInput(&input); err != nil {
			return anthropic.NewToolResultsMessage(call.ID, "invalid tool input: "+err.Error(), true)
		}
		task, err := s.tasks.Schedule(ctx, input.Title, input.Date, tasks.Category(input.Category))
		if err != nil {
			return anthropic.NewToolResultsMessage(call.ID, "could not schedule task: "+err.Error(), true)
		}
		return anthropic.NewToolResultsMessage(call.ID,
			fmt.Sprintf("scheduled %q for %s (id %d)", task.Title, task.Date, task.ID), false)

	default:
		return anthropic.NewToolResultsMessage(call.ID, "unknown tool "+call.Name, true)
	}
}

// PlantingSuggestions asks the model for crop suggestions based on the
// city's current forecast.
func (s *Service) PlantingSuggestions(ctx context.Context, city string) (string, error) {
	fc, err := s.weather.ForecastByCity(ctx, city)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"Given this forecast for %s:\n%s\nSuggest 3-5 crops suitable to plant now. Answer in Markdown with one bullet per crop and a one-line reason.",
		fc.Place.Name, summarizeForecast(fc))

	resp, err := s.chat.Chat(ctx, anthropic.MessagesRequest{
		Model:     s.model,
		System:    systemPrompt,
		MaxTokens: 1024,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrModel, err)
	}
	return collectText(resp.Content), nil
}

// summarizeForecast compresses the forecast into a few lines of prompt
// text; eight slots cover the next 24 hours.
func summarizeForecast(fc weather.Forecast) string {
	var b strings.Builder
	for i, entry := range fc.Entries {
		if i == 8 {
			break
		}
		fmt.Fprintf(&b, "- %s: %.1f°C, %s\n", entry.Time.Format("Mon 15:04"), entry.TempC, entry.Description)
	}
	if b.Len() == 0 {
		b.WriteString("- no forecast data available\n")
	}
	return b.String()
}

func collectText(content []anthropic.MessageContent) string {
	var b strings.Builder
	for _, block := range content {
		if block.Type == anthropic.MessagesContentTypeText {
			b.WriteString(block.GetText())
		}
	}
	return b.String()
}
