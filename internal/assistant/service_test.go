package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/require"

	"github.com/agrivance/agrivance/internal/inventory"
	"github.com/agrivance/agrivance/internal/tasks"
	"github.com/agrivance/agrivance/internal/weather"
)

type fakeChatter struct {
	responses []anthropic.MessagesResponse
	requests  []anthropic.MessagesRequest
	err       error
}

func (f *fakeChatter) Chat(ctx context.Context, req anthropic.MessagesRequest) (anthropic.MessagesResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return anthropic.MessagesResponse{}, f.err
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func textResponse(text string) anthropic.MessagesResponse {
	return anthropic.MessagesResponse{
		Content:    []anthropic.MessageContent{{Type: anthropic.MessagesContentTypeText, Text: &text}},
		StopReason: anthropic.MessagesStopReasonEndTurn,
	}
}

func toolUseResponse(id, name string, input string) anthropic.MessagesResponse {
	return anthropic.MessagesResponse{
		Content: []anthropic.MessageContent{{
			Type: anthropic.MessagesContentTypeToolUse,
			MessageContentToolUse: &anthropic.MessageContentToolUse{
				ID:    id,
				Name:  name,
				Input: json.RawMessage(input),
			},
		}},
		StopReason: anthropic.MessagesStopReasonToolUse,
	}
}

type fakeInventory struct {
	lastItem string
	total    float64
	unit     inventory.Unit
	err      error
}

func (f *fakeInventory) TotalQuantity(ctx context.Context, name string) (float64, inventory.Unit, error) {
	f.lastItem = name
	return f.total, f.unit, f.err
}

type fakeTasks struct {
	scheduled []tasks.Task
	err       error
}

func (f *fakeTasks) Schedule(ctx context.Context, title, date string, category tasks.Category) (tasks.Task, error) {
	if f.err != nil {
		return tasks.Task{}, f.err
	}
	task := tasks.Task{ID: int64(len(f.scheduled) + 1), Title: title, Date: date, Category: category, Status: tasks.StatusToDo}
	f.scheduled = append(f.scheduled, task)
	return task, nil
}

type fakeWeather struct {
	forecast weather.Forecast
	err      error
}

func (f *fakeWeather) ForecastByCity(ctx context.Context, city string) (weather.Forecast, error) {
	if f.err != nil {
		return weather.Forecast{}, f.err
	}
	return f.forecast, nil
}

func TestQueryPlainAnswer(t *testing.T) {
	chat := &fakeChatter{responses: []anthropic.MessagesResponse{textResponse("You have plenty of corn.")}}
	svc := NewService(slog.Default(), chat, "test-model", &fakeInventory{}, &fakeTasks{}, &fakeWeather{})

	answer, err := svc.Query(context.Background(), "How is the corn stock?")
	require.NoError(t, err)
	require.Equal(t, "You have plenty of corn.", answer)

	require.Len(t, chat.requests, 1)
	require.Len(t, chat.requests[0].Tools, 2)
	require.NotEmpty(t, chat.requests[0].System)
}

func TestQueryRunsInventoryTool(t *testing.T) {
	chat := &fakeChatter{responses: []anthropic.MessagesResponse{
		toolUseResponse("tu_1", "get_inventory_quantity", `{"item_name":"corn"}`),
		textResponse("There are 150 kg of corn."),
	}}
	inv := &fakeInventory{total: 150, unit: inventory.UnitKilogram}
	svc := NewService(slog.Default(), chat, "test-model", inv, &fakeTasks{}, &fakeWeather{})

	answer, err := svc.Query(context.Background(), "How much corn do we have?")
	require.NoError(t, err)
	require.Equal(t, "There are 150 kg of corn.", answer)
	require.Equal(t, "corn", inv.lastItem)

	// Second round carries the original question, the assistant turn and
	// the tool result.
	require.Len(t, chat.requests, 2)
	require.Len(t, chat.requests[1].Messages, 3)
}

func TestQueryRunsScheduleTool(t *testing.T) {
	chat := &fakeChatter{responses: []anthropic.MessagesResponse{
		toolUseResponse("tu_2", "schedule_task", `{"title":"Harvest field 3","date":"2026-09-10","category":"Harvesting"}`),
		textResponse("Done, harvest scheduled."),
	}}
	tsk := &fakeTasks{}
	svc := NewService(slog.Default(), chat, "test-model", &fakeInventory{}, tsk, &fakeWeather{})

	answer, err := svc.Query(context.Background(), "Schedule the harvest for field 3 on Sep 10")
	require.NoError(t, err)
	require.Equal(t, "Done, harvest scheduled.", answer)

	require.Len(t, tsk.scheduled, 1)
	require.Equal(t, "Harvest field 3", tsk.scheduled[0].Title)
	require.Equal(t, tasks.CategoryHarvesting, tsk.scheduled[0].Category)
}

func TestQueryToolFailureIsReportedToModel(t *testing.T) {
	chat := &fakeChatter{responses: []anthropic.MessagesResponse{
		toolUseResponse("tu_3", "get_inventory_quantity", `{"item_name":"bananas"}`),
		textResponse("No bananas in stock."),
	}}
	inv := &fakeInventory{err: inventory.ErrRowNotFound}
	svc := NewService(slog.Default(), chat, "test-model", inv, &fakeTasks{}, &fakeWeather{})

	answer, err := svc.Query(context.Background(), "Any bananas?")
	require.NoError(t, err)
	require.Equal(t, "No bananas in stock.", answer)
	require.Len(t, chat.requests, 2)
}

func TestQueryModelError(t *testing.T) {
	chat := &fakeChatter{err: errors.New("boom")}
	svc := NewService(slog.Default(), chat, "test-model", &fakeInventory{}, &fakeTasks{}, &fakeWeather{})

	_, err := svc.Query(context.Background(), "hello")
	require.ErrorIs(t, err, ErrModel)
}

func TestPlantingSuggestions(t *testing.T) {
	chat := &fakeChatter{responses: []anthropic.MessagesResponse{textResponse("- Maize: warm and wet\n- Beans: short cycle")}}
	wth := &fakeWeather{forecast: weather.Forecast{
		Place: weather.Place{Name: "Nairobi", Lat: -1.28, Lng: 36.82},
		Entries: []weather.Entry{
			{Time: time.Unix(1756450800, 0).UTC(), TempC: 22, Condition: "Rain", Description: "light rain"},
		},
	}}
	svc := NewService(slog.Default(), chat, "test-model", &fakeInventory{}, &fakeTasks{}, wth)

	suggestions, err := svc.PlantingSuggestions(context.Background(), "Nairobi")
	require.NoError(t, err)
	require.Contains(t, suggestions, "Maize")

	require.Len(t, chat.requests, 1)
	content := chat.requests[0].Messages[0].GetFirstContent()
	prompt := content.GetText()
	require.Contains(t, prompt, "Nairobi")
	require.Contains(t, prompt, "light rain")
}

func TestPlantingSuggestionsWeatherFailure(t *testing.T) {
	wth := &fakeWeather{err: weather.ErrCityNotFound}
	svc := NewService(slog.Default(), &fakeChatter{}, "test-model", &fakeInventory{}, &fakeTasks{}, wth)

	_, err := svc.PlantingSuggestions(context.Background(), "Atlantis")
	require.ErrorIs(t, err, weather.ErrCityNotFound)
}
