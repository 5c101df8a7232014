package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"cleanbook/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
	name string
}

func (m *mockChannel) Name() string { return m.name }

func (m *mockChannel) Notify(ctx context.Context, n Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var newBooking = Notification{Title: "New Booking Request", Content: "Customer: Ann"}

func TestDispatcher_NotifyOwner(t *testing.T) {
	logger := zerolog.New(io.Discard)

	t.Run("AllDelivered", func(t *testing.T) {
		a := &mockChannel{name: "a"}
		b := &mockChannel{name: "b"}
		a.On("Notify", mock.Anything, newBooking).Return(nil).Once()
		b.On("Notify", mock.Anything, newBooking).Return(nil).Once()

		d := NewDispatcher(time.Second, &logger, a, b)
		assert.True(t, d.NotifyOwner(context.Background(), newBooking))
		a.AssertExpectations(t)
		b.AssertExpectations(t)
	})

	t.Run("PartialFailureStillDelivered", func(t *testing.T) {
		a := &mockChannel{name: "a"}
		b := &mockChannel{name: "b"}
		a.On("Notify", mock.Anything, newBooking).Return(errors.New("down")).Once()
		b.On("Notify", mock.Anything, newBooking).Return(nil).Once()

		d := NewDispatcher(0, &logger, a, b)
		assert.True(t, d.NotifyOwner(context.Background(), newBooking))
		b.AssertExpectations(t)
	})

	t.Run("AllFail", func(t *testing.T) {
		a := &mockChannel{name: "a"}
		a.On("Notify", mock.Anything, newBooking).Return(errors.New("down")).Once()

		d := NewDispatcher(time.Second, &logger, a)
		assert.False(t, d.NotifyOwner(context.Background(), newBooking))
	})

	t.Run("NoChannels", func(t *testing.T) {
		assert.False(t, NewDispatcher(time.Second, &logger).NotifyOwner(context.Background(), newBooking))
	})

	t.Run("TimeoutApplied", func(t *testing.T) {
		a := &mockChannel{name: "a"}
		a.On("Notify", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), newBooking).Return(nil).Once()

		d := NewDispatcher(time.Second, &logger, a)
		assert.True(t, d.NotifyOwner(context.Background(), newBooking))
		a.AssertExpectations(t)
	})
}

func TestLogChannel(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	require.NoError(t, NewLogChannel(&logger).Notify(context.Background(), newBooking))
	assert.Contains(t, buf.String(), "New Booking Request")
	assert.Contains(t, buf.String(), "Customer: Ann")
}

func TestTelegramChannel(t *testing.T) {
	retry := RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond}

	t.Run("SendsToEveryChat", func(t *testing.T) {
		bot := new(mockSender)
		bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.Text == "New Booking Request\n\nCustomer: Ann"
		})).Return(nil).Twice()

		ch := NewTelegramChannel(bot, []int64{1, 2}, retry)
		assert.Equal(t, "telegram", ch.Name())
		require.NoError(t, ch.Notify(context.Background(), newBooking))
		bot.AssertExpectations(t)
	})

	t.Run("RetriesThenFails", func(t *testing.T) {
		bot := new(mockSender)
		bot.On("Send", mock.Anything).Return(errors.New("telegram down")).Times(2)

		err := NewTelegramChannel(bot, []int64{1}, retry).Notify(context.Background(), newBooking)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chat 1")
		bot.AssertExpectations(t)
	})

	t.Run("NoChats", func(t *testing.T) {
		assert.Error(t, NewTelegramChannel(new(mockSender), nil, retry).Notify(context.Background(), newBooking))
	})
}

func TestKafkaChannel(t *testing.T) {
	w := &fakeWriter{}
	ch := NewKafkaChannel(w)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ch.now = func() time.Time { return fixed }

	require.NoError(t, ch.Notify(context.Background(), newBooking))
	require.Len(t, w.msgs, 1)

	var event map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, "owner_notification", event["type"])
	assert.Equal(t, "New Booking Request", event["title"])
	assert.Equal(t, "Customer: Ann", event["content"])
	assert.Equal(t, "2025-03-01T12:00:00Z", event["sent_at"])

	w.err = errors.New("broker down")
	assert.Error(t, ch.Notify(context.Background(), newBooking))

	require.NoError(t, ch.Close())
	assert.True(t, w.closed)
}

func TestBuild(t *testing.T) {
	logger := zerolog.Nop()
	bot := new(mockSender)
	factory := func(token string) (Sender, error) {
		if token != "token" {
			return nil, errors.New("bad token")
		}
		return bot, nil
	}

	cfg := config.NotifyConfig{
		Channels: []string{config.ChannelLog, config.ChannelTelegram, config.ChannelKafka},
		Timeout:  time.Second,
		Telegram: config.TelegramConfig{BotToken: "token", OwnerChatIDs: []int64{1}},
		Kafka:    config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "owner-notifications"},
	}

	d, closeFn, err := Build(cfg, factory, &logger)
	require.NoError(t, err)
	require.Len(t, d.channels, 3)
	assert.Equal(t, "log", d.channels[0].Name())
	assert.Equal(t, "telegram", d.channels[1].Name())
	assert.Equal(t, "kafka", d.channels[2].Name())
	assert.NoError(t, closeFn())

	cfg.Telegram.BotToken = "wrong"
	_, _, err = Build(cfg, factory, &logger)
	assert.Error(t, err)

	_, _, err = Build(config.NotifyConfig{Channels: []string{"sms"}}, factory, &logger)
	assert.Error(t, err)
}

type slowSender struct {
	delay time.Duration
}

func (s slowSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	time.Sleep(s.delay)
	return tgbotapi.Message{}, nil
}

func TestTelegramChannel_HonoursDispatcherTimeout(t *testing.T) {
	logger := zerolog.Nop()
	ch := NewTelegramChannel(slowSender{delay: 500 * time.Millisecond}, []int64{1, 2, 3}, RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond})
	d := NewDispatcher(50*time.Millisecond, &logger, ch)

	start := time.Now()
	delivered := d.NotifyOwner(context.Background(), newBooking)
	elapsed := time.Since(start)

	assert.False(t, delivered)
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestTelegramChannel_SkipsChatsAfterCancel(t *testing.T) {
	bot := new(mockSender)
	ch := NewTelegramChannel(bot, []int64{1, 2}, RetryPolicy{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ch.Notify(ctx, newBooking)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	bot.AssertNotCalled(t, "Send", mock.Anything)
}

func TestBuild_ClosesWritersOnError(t *testing.T) {
	logger := zerolog.Nop()
	w := &fakeWriter{}
	orig := newKafkaWriter
	newKafkaWriter = func([]string, string) MessageWriter { return w }
	t.Cleanup(func() { newKafkaWriter = orig })

	cfg := config.NotifyConfig{
		Channels: []string{config.ChannelKafka, config.ChannelTelegram},
		Kafka:    config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "owner-notifications"},
		Telegram: config.TelegramConfig{BotToken: "token", OwnerChatIDs: []int64{1}},
	}
	failing := func(string) (Sender, error) { return nil, errors.New("bad token") }

	_, _, err := Build(cfg, failing, &logger)
	require.Error(t, err)
	assert.True(t, w.closed)
}
