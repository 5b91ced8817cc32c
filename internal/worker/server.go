package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/tasks"
)

// turnFlushInterval 是回合镜像刷新任务的调度周期
const turnFlushInterval = "@every 30s"

// WorkerServer 封装了 Asynq Worker Server 和周期任务调度器的启动与关闭
type WorkerServer struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	log       *logrus.Entry
	turns     *service.TurnRegistry
}

// NewWorkerServer 创建 WorkerServer 实例
func NewWorkerServer(redisOpt asynq.RedisClientOpt, turns *service.TurnRegistry, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})

	return &WorkerServer{
		server:    server,
		scheduler: scheduler,
		log:       logEntry,
		turns:     turns,
	}
}

// Start 运行 Worker Server 和周期任务调度器。
// 应在单独的 goroutine 中调用。
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeTurnMirrorFlush, NewTurnMirrorFlushHandler(ws.turns))

	flushTask, err := tasks.NewTurnMirrorFlushTask()
	if err != nil {
		ws.log.Fatalf("Could not build turn mirror flush task: %v", err)
	}
	if _, err := ws.scheduler.Register(turnFlushInterval, flushTask, asynq.Queue("low")); err != nil {
		ws.log.Fatalf("Could not register periodic turn mirror flush: %v", err)
	}
	go func() {
		if err := ws.scheduler.Run(); err != nil {
			ws.log.Errorf("Scheduler stopped with error: %v", err)
		}
	}()

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		}
		ws.log.Info("Worker server stopped.")
	}
}

// Shutdown 优雅地关闭 Worker Server 和调度器
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.scheduler.Shutdown()
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
