package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/voicecv-core/server/internal/agent/cv"
	"github.com/voicecv-core/server/internal/agent/events"
	"github.com/voicecv-core/server/internal/agent/graph/conversations"
	"github.com/voicecv-core/server/internal/agent/graph/nodes"
	"github.com/voicecv-core/server/internal/agent/intents"
	"github.com/voicecv-core/server/internal/agent/model"
	"github.com/voicecv-core/server/internal/agent/transcribe"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// Config holds everything needed to compose the turn service end-to-end.
// This is a convenience layer over GraphConfig and ServiceConfig.
type Config struct {
	ChatModel    nodes.ChatModelConfig
	Conversation model.ConversationConfig
	Estimator    conversations.TokenEstimator
	Validator    cv.PersonalInfoValidator
	Repo         model.SessionRepository
	Transcriber  transcribe.Transcriber
	Publisher    events.Publisher
	Timeout      time.Duration
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	Reconciler      *nodes.Reconciler
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, model.TurnResult]
}

// BuildService composes ChatModels, MessagesManager and Reconciler, builds the graph, and returns a Service.
func BuildService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Repo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}

	cms, err := nodes.NewChatModels(ctx, cfg.ChatModel)
	if err != nil {
		return nil, err
	}

	normalizer := cv.NewNormalizer(cfg.Validator)
	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: conversations.NewMessagesManager(cfg.Conversation, cfg.Estimator),
		Reconciler:      nodes.NewReconciler(normalizer, intents.Default()),
	})
	if err != nil {
		return nil, err
	}

	refiner, err := NewRefiner(cms.CV, cms.CVModelName, normalizer)
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("model", cms.CVModelName).Msg("Turn graph built successfully")
	return NewService(ServiceConfig{
		Runnable:    runnable,
		Repo:        cfg.Repo,
		Transcriber: cfg.Transcriber,
		Publisher:   cfg.Publisher,
		Refiner:     refiner,
		Timeout:     cfg.Timeout,
	})
}

// BuildGraph constructs and returns the compiled turn graph:
// HistoryBuilder -> CVChatModel -> ReplyParser -> TurnReconciler.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, model.TurnResult], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.CV == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Reconciler == nil {
		return nil, fmt.Errorf("reconciler is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, model.TurnResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	err := b.graph.AddLambdaNode(nodes.NodeHistoryBuilder,
		nodes.NewHistoryBuilderNode(b.config.MessagesManager),
		compose.WithStatePreHandler(nodes.NewHistoryBuilderPreHandler()),
	)
	if err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeHistoryBuilder, err)
	}

	err = b.graph.AddChatModelNode(nodes.NodeCVChatModel,
		b.config.ChatModels.CV,
		compose.WithStatePreHandler(nodes.NewCVChatModelPreHandler()),
		compose.WithStatePostHandler(nodes.NewCVChatModelPostHandler(b.config.ChatModels.CVModelName)),
	)
	if err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeCVChatModel, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeReplyParser, nodes.NewReplyParserNode()); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeReplyParser, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeTurnReconciler, nodes.NewTurnReconcilerNode(b.config.Reconciler)); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeTurnReconciler, err)
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeHistoryBuilder},
		{nodes.NodeHistoryBuilder, nodes.NodeCVChatModel},
		{nodes.NodeCVChatModel, nodes.NodeReplyParser},
		{nodes.NodeReplyParser, nodes.NodeTurnReconciler},
		{nodes.NodeTurnReconciler, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, model.TurnResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
