package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedMetrics struct {
	mu       sync.Mutex
	messages map[string]int
	drops    map[string]int
	pending  int
}

func newRecordedMetrics() *recordedMetrics {
	return &recordedMetrics{
		messages: make(map[string]int),
		drops:    make(map[string]int),
	}
}

func (r *recordedMetrics) RecordBusMessage(messageType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[messageType]++
}

func (r *recordedMetrics) RecordBusDrop(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drops[reason]++
}

func (r *recordedMetrics) SetBusPending(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = n
}

func (r *recordedMetrics) dropCount(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drops[reason]
}

func newTestBus(t *testing.T) (*Bus, *recordedMetrics) {
	t.Helper()
	rec := newRecordedMetrics()
	b := New(DefaultConfig(), rec, zaptest.NewLogger(t))
	return b, rec
}

// collector 收集某个 Agent 收到的消息
type collector struct {
	mu   sync.Mutex
	msgs []*Message
}

func (c *collector) handler() Handler {
	return func(_ context.Context, msg *Message) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.msgs = append(c.msgs, msg)
	}
}

func (c *collector) waitFor(t *testing.T, msgType MessageType) *Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for _, m := range c.msgs {
			if m.Type == msgType {
				c.mu.Unlock()
				return m
			}
		}
		c.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("message of type %s not received", msgType)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestRegisterAndStatus(t *testing.T) {
	b, _ := newTestBus(t)

	require.NoError(t, b.Register("market-agent", AgentTypeMarket, nil))
	require.NoError(t, b.Register("skill-agent", AgentTypeSkillAnalysis, nil))

	err := b.Register("market-agent", AgentTypeMarket, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	status := b.Status()
	assert.Equal(t, 2, status.RegisteredAgents)
	assert.Equal(t, 2, status.ActiveAgents)
	assert.False(t, status.Running)
}

func TestRegisterRequiresID(t *testing.T) {
	b, _ := newTestBus(t)
	require.Error(t, b.Register("", AgentTypeMarket, nil))
}

func TestDirectDelivery(t *testing.T) {
	b, _ := newTestBus(t)
	b.Start(context.Background())
	defer b.Stop()

	var received collector
	require.NoError(t, b.Register("receiver", AgentTypeCareerIntelligence, received.handler()))

	ok := b.Send(&Message{
		SenderID:   "sender",
		ReceiverID: "receiver",
		Type:       MessageShareInsights,
		Data:       map[string]any{"trend": "ai_growth"},
	})
	require.True(t, ok)

	msg := received.waitFor(t, MessageShareInsights)
	assert.Equal(t, "sender", msg.SenderID)
	assert.Equal(t, "ai_growth", msg.Data["trend"])
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, 3, msg.Priority)
}

func TestBroadcastSkipsSender(t *testing.T) {
	b, _ := newTestBus(t)
	b.Start(context.Background())
	defer b.Stop()

	var a, c collector
	require.NoError(t, b.Register("agent-a", AgentTypeMarket, a.handler()))
	require.NoError(t, b.Register("agent-c", AgentTypeGoalSetting, c.handler()))

	b.Broadcast("agent-a", MessagePerformanceMetric, map[string]any{"rtt": 0.2})

	c.waitFor(t, MessagePerformanceMetric)
	// 发送方不应收到自己的广播
	a.mu.Lock()
	for _, m := range a.msgs {
		assert.NotEqual(t, MessagePerformanceMetric, m.Type)
	}
	a.mu.Unlock()
}

func TestUnknownReceiverDropped(t *testing.T) {
	b, rec := newTestBus(t)
	b.Start(context.Background())
	defer b.Stop()

	b.Send(&Message{SenderID: "x", ReceiverID: "ghost", Type: MessageStateUpdate})

	require.Eventually(t, func() bool {
		return rec.dropCount("unknown_receiver") == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQueueOverflowDrops(t *testing.T) {
	rec := newRecordedMetrics()
	cfg := DefaultConfig()
	cfg.QueueSize = 2
	b := New(cfg, rec, zaptest.NewLogger(t))
	// 未启动调度，队列不被消费

	assert.True(t, b.Send(&Message{SenderID: "a", Type: MessageStateUpdate}))
	assert.True(t, b.Send(&Message{SenderID: "a", Type: MessageStateUpdate}))
	assert.False(t, b.Send(&Message{SenderID: "a", Type: MessageStateUpdate}))
	assert.Equal(t, 1, rec.dropCount("queue_full"))
}

func TestCollaborationSessionLifecycle(t *testing.T) {
	b, _ := newTestBus(t)
	b.Start(context.Background())
	defer b.Stop()

	var p1, p2 collector
	require.NoError(t, b.Register("initiator", AgentTypeCareerIntelligence, nil))
	require.NoError(t, b.Register("participant-1", AgentTypeMarket, p1.handler()))
	require.NoError(t, b.Register("participant-2", AgentTypeBehavioral, p2.handler()))

	sessionID := b.RequestCollaboration("initiator",
		[]string{"participant-1", "participant-2"},
		"analyze transition readiness",
		map[string]any{"target_role": "ml_engineer"},
	)
	require.NotEmpty(t, sessionID)

	msg := p1.waitFor(t, MessageCollaboration)
	assert.Equal(t, sessionID, msg.Data["session_id"])
	assert.True(t, msg.RequiresResponse)
	p2.waitFor(t, MessageCollaboration)

	// 总线内部应已记录两个参与者的接收响应
	require.Eventually(t, func() bool {
		session, ok := b.Session(sessionID)
		return ok && session.Status == "ACTIVE" && len(session.Responses) == 2
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, b.RespondToCollaboration(sessionID, "participant-1",
		map[string]any{"readiness": 0.8}))
	session, ok := b.Session(sessionID)
	require.True(t, ok)
	assert.Equal(t, "completed", session.Responses["participant-1"].Status)

	require.Error(t, b.RespondToCollaboration("missing", "x", nil))
}

func TestShareInsightsUpdatesKnowledge(t *testing.T) {
	b, _ := newTestBus(t)
	b.Start(context.Background())
	defer b.Stop()

	var received collector
	require.NoError(t, b.Register("observer", AgentTypeGoalSetting, received.handler()))

	b.ShareInsights("market-agent", map[string]any{
		"trend":  "remote_work_increase",
		"signal": "strong",
	}, nil)

	received.waitFor(t, MessageShareInsights)
	assert.Equal(t, 1, b.Status().SharedInsights)
}

func TestInsightImpactBounded(t *testing.T) {
	assert.InDelta(t, 0.7, insightImpact(map[string]any{}), 1e-9)
	assert.InDelta(t, 0.8, insightImpact(map[string]any{"a": 1}), 1e-9)

	big := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
	assert.InDelta(t, 1.0, insightImpact(big), 1e-9)
}

func TestLearnFromInteraction(t *testing.T) {
	b, _ := newTestBus(t)

	patterns := b.LearnFromInteraction("behavioral-agent", map[string]any{
		"user_actions":    []string{"completed_assessment"},
		"success_metrics": map[string]any{"satisfaction": 0.9},
	})
	require.Len(t, patterns, 2)
	assert.Equal(t, "user_behavior", patterns[0].Type)
	assert.InDelta(t, 0.8, patterns[0].Confidence, 1e-9)
	assert.Equal(t, "success_pattern", patterns[1].Type)

	assert.Equal(t, 2, b.Status().LearningPatterns)

	// 无可提取模式时返回空
	assert.Empty(t, b.LearnFromInteraction("x", map[string]any{"noise": true}))
}

func TestUpdateAgentStatus(t *testing.T) {
	b, _ := newTestBus(t)
	require.NoError(t, b.Register("worker", AgentTypeAdaptiveRoadmap, nil))

	b.UpdateAgentStatus("worker", StatusThinking, "building roadmap")

	agents := b.Agents()
	require.Len(t, agents, 1)
	assert.Equal(t, StatusThinking, agents[0].Status)
	assert.Equal(t, "building roadmap", agents[0].CurrentTask)
	assert.Equal(t, 0, b.Status().ActiveAgents)

	// 未注册 Agent 更新为空操作
	b.UpdateAgentStatus("ghost", StatusError, "")
}

func TestStaleSessionCleanup(t *testing.T) {
	b, _ := newTestBus(t)

	sessionID := b.RequestCollaboration("a", nil, "old task", nil)

	b.mu.Lock()
	b.sessions[sessionID].CreatedAt = time.Now().Add(-48 * time.Hour)
	b.mu.Unlock()

	b.cleanupStale()

	_, ok := b.Session(sessionID)
	assert.False(t, ok)
}

func TestStartStopIdempotent(t *testing.T) {
	b, _ := newTestBus(t)

	b.Start(context.Background())
	b.Start(context.Background())
	assert.True(t, b.Status().Running)

	b.Stop()
	b.Stop()
	assert.False(t, b.Status().Running)
}

func TestStopDrainsQueue(t *testing.T) {
	b, _ := newTestBus(t)
	b.Start(context.Background())

	var received collector
	require.NoError(t, b.Register("drain-target", AgentTypeMarket, received.handler()))

	for i := 0; i < 10; i++ {
		b.Send(&Message{SenderID: "s", ReceiverID: "drain-target", Type: MessageStateUpdate})
	}
	b.Stop()

	assert.Equal(t, 10, received.count())
}
