package cmd

import (
	"log/slog"

	"github.com/praxisflow/praxisflow/pkg/actions/chatmessage"
	"github.com/praxisflow/praxisflow/pkg/actions/message"
	"github.com/praxisflow/praxisflow/pkg/actions/task"
	"github.com/praxisflow/praxisflow/pkg/assign"
	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/cache"
	"github.com/praxisflow/praxisflow/pkg/config"
	"github.com/praxisflow/praxisflow/pkg/eventbus"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/providers/chat"
	"github.com/praxisflow/praxisflow/pkg/providers/mail"
	"github.com/praxisflow/praxisflow/pkg/registry"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// NewEngine wires the full automation engine: recorder, assignment picker,
// delivery clients, the action registry, and the service-name cache.
func NewEngine(
	p persistence.Persistence,
	redisClient redis.UniversalClient,
	providers config.ProvidersConfig,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *automation.Engine {
	recorder := automation.NewRecorder(p, logger)
	picker := assign.NewPicker(p)
	mailClient := mail.NewClient(providers.Mail, logger)
	chatClient := chat.NewClient(providers.Chat, logger)

	reg := registry.NewRegistry(logger)
	reg.RegisterAction(task.NewActionFactory(p, recorder, picker))
	reg.RegisterAction(message.NewActionFactory(p, recorder, mailClient, providers.Mail))
	reg.RegisterAction(chatmessage.NewActionFactory(p, recorder, chatClient))

	serviceNames := cache.NewServiceNames(redisClient, p, logger)

	return automation.NewEngine(p, reg, recorder, serviceNames, publisher, tracer, logger)
}
