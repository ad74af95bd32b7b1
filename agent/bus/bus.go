// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// 📨 A2A 消息协议
// =============================================================================

// AgentType Agent 角色类型
type AgentType string

const (
	AgentTypeBehavioral         AgentType = "behavioral_intelligence"
	AgentTypeMarket             AgentType = "market_intelligence"
	AgentTypeMotivation         AgentType = "motivation_energy"
	AgentTypeGoalSetting        AgentType = "goal_setting"
	AgentTypeGamingAssessment   AgentType = "gaming_assessment"
	AgentTypeAdaptiveRoadmap    AgentType = "adaptive_roadmap"
	AgentTypeCareerIntelligence AgentType = "career_intelligence"
	AgentTypeSkillAnalysis      AgentType = "skill_analysis"
)

// MessageType 消息类型
type MessageType string

const (
	MessageStateUpdate       MessageType = "state_update"
	MessageCollaboration     MessageType = "request_collaboration"
	MessageShareInsights     MessageType = "share_insights"
	MessageLearnFromData     MessageType = "learn_from_data"
	MessageCoordination      MessageType = "coordination_request"
	MessagePerformanceMetric MessageType = "performance_metric"
	MessageEmergencyAlert    MessageType = "emergency_alert"
)

// AgentStatus Agent 运行状态
type AgentStatus string

const (
	StatusActive   AgentStatus = "ACTIVE"
	StatusThinking AgentStatus = "THINKING"
	StatusIdle     AgentStatus = "IDLE"
	StatusError    AgentStatus = "ERROR"
)

// Message Agent 间消息。ReceiverID 为空表示广播。
type Message struct {
	ID               string         `json:"id"`
	SenderID         string         `json:"sender_id"`
	ReceiverID       string         `json:"receiver_id,omitempty"`
	Type             MessageType    `json:"type"`
	Timestamp        time.Time      `json:"timestamp"`
	Data             map[string]any `json:"data,omitempty"`
	Priority         int            `json:"priority"` // 1=低, 5=高
	RequiresResponse bool           `json:"requires_response"`
}

// AgentState Agent 注册状态与性能指标
type AgentState struct {
	ID                 string             `json:"id"`
	Type               AgentType          `json:"type"`
	Status             AgentStatus        `json:"status"`
	CurrentTask        string             `json:"current_task,omitempty"`
	LastUpdated        time.Time          `json:"last_updated"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics"`
	ActiveSessions     []string           `json:"active_sessions,omitempty"`
}

// Handler 消息处理回调。在调度 goroutine 中同步执行，需快速返回。
type Handler func(ctx context.Context, msg *Message)

// SessionResponse 协作会话中单个参与者的响应
type SessionResponse struct {
	Status    string         `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CollaborationSession 跨 Agent 协作会话
type CollaborationSession struct {
	ID           string                     `json:"id"`
	Initiator    string                     `json:"initiator"`
	Participants []string                   `json:"participants"`
	Task         string                     `json:"task"`
	RequiredData map[string]any             `json:"required_data,omitempty"`
	Status       string                     `json:"status"`
	CreatedAt    time.Time                  `json:"created_at"`
	Responses    map[string]SessionResponse `json:"responses"`
}

// Insight 共享知识库中的跨 Agent 洞察
type Insight struct {
	Source      string         `json:"source"`
	Payload     map[string]any `json:"payload"`
	ImpactScore float64        `json:"impact_score"`
	ReceivedAt  time.Time      `json:"received_at"`
}

// LearningPattern 从交互数据中提取的学习模式
type LearningPattern struct {
	Type       string         `json:"type"`
	Pattern    map[string]any `json:"pattern"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Status 总线状态快照
type Status struct {
	Running              bool `json:"running"`
	RegisteredAgents     int  `json:"registered_agents"`
	ActiveAgents         int  `json:"active_agents"`
	PendingMessages      int  `json:"pending_messages"`
	ActiveCollaborations int  `json:"active_collaborations"`
	SharedInsights       int  `json:"shared_insights"`
	LearningPatterns     int  `json:"learning_patterns"`
}

// Recorder 总线指标的最小上报接口
type Recorder interface {
	RecordBusMessage(messageType string)
	RecordBusDrop(reason string)
	SetBusPending(n int)
}

// =============================================================================
// 🚌 消息总线
// =============================================================================

const (
	defaultQueueSize      = 256
	defaultCleanupEvery   = time.Hour
	defaultRetentionAge   = 24 * time.Hour
	defaultHandlerTimeout = 10 * time.Second
)

// Config 总线配置
type Config struct {
	QueueSize       int           `yaml:"queue_size" json:"queue_size"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	RetentionAge    time.Duration `yaml:"retention_age" json:"retention_age"`
}

// DefaultConfig 默认总线配置
func DefaultConfig() Config {
	return Config{
		QueueSize:       defaultQueueSize,
		CleanupInterval: defaultCleanupEvery,
		RetentionAge:    defaultRetentionAge,
	}
}

// Bus 进程内 Agent-to-Agent 消息总线。
// 有界通道承载消息队列，独立调度 goroutine 消费；
// 队列满时消息被丢弃并计数，广播永不阻塞发送方。
type Bus struct {
	mu sync.RWMutex

	agents     map[string]*AgentState
	handlers   map[string]Handler
	sessions   map[string]*CollaborationSession
	insights   map[string]*Insight
	patterns   map[string][]LearningPattern
	queue      chan *Message
	config     Config
	recorder   Recorder
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
	running    bool
	dispatched uint64
	dropped    uint64
}

// New 创建消息总线。recorder 可为 nil。
func New(config Config, recorder Recorder, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaultCleanupEvery
	}
	if config.RetentionAge <= 0 {
		config.RetentionAge = defaultRetentionAge
	}

	return &Bus{
		agents:   make(map[string]*AgentState),
		handlers: make(map[string]Handler),
		sessions: make(map[string]*CollaborationSession),
		insights: make(map[string]*Insight),
		patterns: make(map[string][]LearningPattern),
		queue:    make(chan *Message, config.QueueSize),
		config:   config,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "agent_bus")),
	}
}

// Start 启动调度与清理循环。重复调用为幂等。
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.dispatchLoop(runCtx)

	b.logger.Info("agent bus started",
		zap.Int("queue_size", b.config.QueueSize),
		zap.Duration("cleanup_interval", b.config.CleanupInterval),
	)
}

// Stop 停止总线并等待调度循环退出
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	cancel()
	<-done

	b.logger.Info("agent bus stopped")
}

// Register 以指定角色注册 Agent，携带初始性能基线，
// 并向其余 Agent 广播注册事件。
func (b *Bus) Register(agentID string, agentType AgentType, handler Handler) error {
	if agentID == "" {
		return fmt.Errorf("agent id is required")
	}

	b.mu.Lock()
	if _, exists := b.agents[agentID]; exists {
		b.mu.Unlock()
		return fmt.Errorf("agent already registered: %s", agentID)
	}

	b.agents[agentID] = &AgentState{
		ID:          agentID,
		Type:        agentType,
		Status:      StatusActive,
		LastUpdated: time.Now(),
		PerformanceMetrics: map[string]float64{
			"response_time":       0.0,
			"accuracy":            0.95,
			"user_satisfaction":   0.9,
			"collaboration_score": 0.8,
		},
	}
	if handler != nil {
		b.handlers[agentID] = handler
	}
	b.mu.Unlock()

	b.logger.Info("agent registered",
		zap.String("agent_id", agentID),
		zap.String("agent_type", string(agentType)),
	)

	b.Broadcast(agentID, MessageStateUpdate, map[string]any{
		"event":      "agent_registered",
		"agent_type": string(agentType),
	})

	return nil
}

// Deregister 注销 Agent
func (b *Bus) Deregister(agentID string) {
	b.mu.Lock()
	delete(b.agents, agentID)
	delete(b.handlers, agentID)
	b.mu.Unlock()

	b.logger.Info("agent deregistered", zap.String("agent_id", agentID))
}

// Send 投递一条消息。队列满时丢弃并计数，绝不阻塞调用方。
func (b *Bus) Send(msg *Message) bool {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Priority == 0 {
		msg.Priority = 3
	}

	select {
	case b.queue <- msg:
		if b.recorder != nil {
			b.recorder.RecordBusMessage(string(msg.Type))
			b.recorder.SetBusPending(len(b.queue))
		}
		return true
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		if b.recorder != nil {
			b.recorder.RecordBusDrop("queue_full")
		}
		b.logger.Warn("message dropped, queue full",
			zap.String("type", string(msg.Type)),
			zap.String("sender", msg.SenderID),
		)
		return false
	}
}

// Broadcast 向全部已注册 Agent 广播消息
func (b *Bus) Broadcast(senderID string, msgType MessageType, data map[string]any) bool {
	return b.Send(&Message{
		SenderID: senderID,
		Type:     msgType,
		Data:     data,
	})
}

// RequestCollaboration 发起协作会话，向每个目标 Agent 发送协作请求，
// 返回会话 ID。
func (b *Bus) RequestCollaboration(initiatorID string, targets []string, task string, requiredData map[string]any) string {
	sessionID := uuid.NewString()

	session := &CollaborationSession{
		ID:           sessionID,
		Initiator:    initiatorID,
		Participants: targets,
		Task:         task,
		RequiredData: requiredData,
		Status:       "REQUESTED",
		CreatedAt:    time.Now(),
		Responses:    make(map[string]SessionResponse),
	}

	b.mu.Lock()
	b.sessions[sessionID] = session
	b.mu.Unlock()

	for _, target := range targets {
		b.Send(&Message{
			SenderID:   initiatorID,
			ReceiverID: target,
			Type:       MessageCollaboration,
			Data: map[string]any{
				"session_id":    sessionID,
				"task":          task,
				"required_data": requiredData,
			},
			Priority:         4,
			RequiresResponse: true,
		})
	}

	b.logger.Info("collaboration session initiated",
		zap.String("session_id", sessionID),
		zap.String("initiator", initiatorID),
		zap.Int("targets", len(targets)),
	)

	return sessionID
}

// ShareInsights 将洞察写入共享知识库并分发给目标 Agent；
// targets 为空时广播。
func (b *Bus) ShareInsights(agentID string, payload map[string]any, targets []string) {
	insight := &Insight{
		Source:      agentID,
		Payload:     payload,
		ImpactScore: insightImpact(payload),
		ReceivedAt:  time.Now(),
	}

	b.mu.Lock()
	b.insights[fmt.Sprintf("%s_%d", agentID, time.Now().UnixNano())] = insight
	b.mu.Unlock()

	data := map[string]any{"insights": payload, "source": agentID}
	if len(targets) == 0 {
		b.Broadcast(agentID, MessageShareInsights, data)
		return
	}
	for _, target := range targets {
		b.Send(&Message{
			SenderID:   agentID,
			ReceiverID: target,
			Type:       MessageShareInsights,
			Data:       data,
		})
	}
}

// LearnFromInteraction 从交互数据提取模式并广播给其余 Agent
func (b *Bus) LearnFromInteraction(agentID string, interaction map[string]any) []LearningPattern {
	patterns := extractPatterns(agentID, interaction)

	b.mu.Lock()
	for _, p := range patterns {
		b.patterns[p.Type] = append(b.patterns[p.Type], p)
	}
	b.mu.Unlock()

	b.Broadcast(agentID, MessageLearnFromData, map[string]any{
		"learning_data":      interaction,
		"extracted_patterns": len(patterns),
	})

	return patterns
}

// Session 返回协作会话快照
func (b *Bus) Session(sessionID string) (*CollaborationSession, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	session, ok := b.sessions[sessionID]
	if !ok {
		return nil, false
	}
	snapshot := *session
	snapshot.Responses = make(map[string]SessionResponse, len(session.Responses))
	for k, v := range session.Responses {
		snapshot.Responses[k] = v
	}
	return &snapshot, true
}

// Agents 返回全部已注册 Agent 的状态快照
func (b *Bus) Agents() []AgentState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]AgentState, 0, len(b.agents))
	for _, state := range b.agents {
		out = append(out, *state)
	}
	return out
}

// UpdateAgentStatus 更新 Agent 状态与当前任务
func (b *Bus) UpdateAgentStatus(agentID string, status AgentStatus, task string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.agents[agentID]
	if !ok {
		return
	}
	state.Status = status
	state.CurrentTask = task
	state.LastUpdated = time.Now()
}

// Status 返回总线状态快照
func (b *Bus) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	active := 0
	for _, a := range b.agents {
		if a.Status == StatusActive {
			active++
		}
	}
	patternCount := 0
	for _, ps := range b.patterns {
		patternCount += len(ps)
	}

	return Status{
		Running:              b.running,
		RegisteredAgents:     len(b.agents),
		ActiveAgents:         active,
		PendingMessages:      len(b.queue),
		ActiveCollaborations: len(b.sessions),
		SharedInsights:       len(b.insights),
		LearningPatterns:     patternCount,
	}
}

// =============================================================================
// 🔧 调度与清理
// =============================================================================

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)

	cleanup := time.NewTicker(b.config.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			// 清空残余消息后退出
			for {
				select {
				case msg := <-b.queue:
					b.dispatch(context.Background(), msg)
				default:
					return
				}
			}
		case msg := <-b.queue:
			b.dispatch(ctx, msg)
			if b.recorder != nil {
				b.recorder.SetBusPending(len(b.queue))
			}
		case <-cleanup.C:
			b.cleanupStale()
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, msg *Message) {
	b.handleInternal(msg)

	b.mu.RLock()
	var targets []Handler
	if msg.ReceiverID != "" {
		if h, ok := b.handlers[msg.ReceiverID]; ok {
			targets = append(targets, h)
		} else if _, known := b.agents[msg.ReceiverID]; !known {
			b.mu.RUnlock()
			if b.recorder != nil {
				b.recorder.RecordBusDrop("unknown_receiver")
			}
			b.logger.Warn("message to unknown receiver dropped",
				zap.String("receiver", msg.ReceiverID),
				zap.String("type", string(msg.Type)),
			)
			return
		}
	} else {
		for id, h := range b.handlers {
			if id != msg.SenderID {
				targets = append(targets, h)
			}
		}
	}
	b.mu.RUnlock()

	for _, handler := range targets {
		handlerCtx, cancel := context.WithTimeout(ctx, defaultHandlerTimeout)
		handler(handlerCtx, msg)
		cancel()
	}

	b.mu.Lock()
	b.dispatched++
	b.mu.Unlock()
}

// handleInternal 处理总线自身关心的消息语义
func (b *Bus) handleInternal(msg *Message) {
	switch msg.Type {
	case MessageStateUpdate:
		b.mu.Lock()
		if state, ok := b.agents[msg.SenderID]; ok {
			state.LastUpdated = msg.Timestamp
		}
		b.mu.Unlock()

	case MessageCollaboration:
		sessionID, _ := msg.Data["session_id"].(string)
		if sessionID == "" {
			return
		}
		b.mu.Lock()
		if session, ok := b.sessions[sessionID]; ok && msg.ReceiverID != "" {
			session.Responses[msg.ReceiverID] = SessionResponse{
				Status:    "accepted",
				Timestamp: time.Now(),
			}
			if len(session.Responses) == len(session.Participants) {
				session.Status = "ACTIVE"
			}
		}
		b.mu.Unlock()
	}
}

// RespondToCollaboration 记录参与者对协作会话的响应数据
func (b *Bus) RespondToCollaboration(sessionID, agentID string, data map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, ok := b.sessions[sessionID]
	if !ok {
		return fmt.Errorf("collaboration session not found: %s", sessionID)
	}
	session.Responses[agentID] = SessionResponse{
		Status:    "completed",
		Data:      data,
		Timestamp: time.Now(),
	}
	return nil
}

func (b *Bus) cleanupStale() {
	cutoff := time.Now().Add(-b.config.RetentionAge)
	removedSessions := 0
	removedInsights := 0

	b.mu.Lock()
	for id, session := range b.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(b.sessions, id)
			removedSessions++
		}
	}
	for key, insight := range b.insights {
		if insight.ReceivedAt.Before(cutoff) {
			delete(b.insights, key)
			removedInsights++
		}
	}
	b.mu.Unlock()

	if removedSessions > 0 || removedInsights > 0 {
		b.logger.Debug("stale bus data cleaned",
			zap.Int("sessions", removedSessions),
			zap.Int("insights", removedInsights),
		)
	}
}

// =============================================================================
// 🧮 评分辅助
// =============================================================================

// insightImpact 依据洞察规模估算影响分，上限 1.0
func insightImpact(payload map[string]any) float64 {
	base := 0.7
	bonus := float64(len(payload)) * 0.1
	if bonus > 0.3 {
		bonus = 0.3
	}
	return base + bonus
}

func extractPatterns(agentID string, interaction map[string]any) []LearningPattern {
	now := time.Now()
	var patterns []LearningPattern

	if actions, ok := interaction["user_actions"]; ok {
		patterns = append(patterns, LearningPattern{
			Type:       "user_behavior",
			Pattern:    map[string]any{"actions": actions},
			Confidence: 0.8,
			Source:     agentID,
			Timestamp:  now,
		})
	}
	if metrics, ok := interaction["success_metrics"]; ok {
		patterns = append(patterns, LearningPattern{
			Type:       "success_pattern",
			Pattern:    map[string]any{"metrics": metrics},
			Confidence: 0.9,
			Source:     agentID,
			Timestamp:  now,
		})
	}

	return patterns
}
