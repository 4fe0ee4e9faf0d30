package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lindenrealty/rentscreen/convmem"
	"github.com/lindenrealty/rentscreen/events"
	"github.com/lindenrealty/rentscreen/export"
	"github.com/lindenrealty/rentscreen/extract"
	"github.com/lindenrealty/rentscreen/orchestrate"
	"github.com/lindenrealty/rentscreen/scan"
	"github.com/lindenrealty/rentscreen/surface"
	"github.com/lindenrealty/rentscreen/surface/bridge"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the triage daemon: driver bridge, scan loop, and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			bind := strings.TrimSpace(flagOrViperString(cmd, "server-bind", "server.bind"))
			if bind == "" {
				bind = "127.0.0.1"
			}
			port := flagOrViperInt(cmd, "server-port", "server.port")
			if port <= 0 {
				port = 8922
			}
			auth, err := authTokenFromViper(ctx)
			if err != nil {
				return err
			}
			if strings.TrimSpace(auth) == "" {
				return fmt.Errorf("missing server.auth_token (set via --server-auth-token, %s_SERVER_AUTH_TOKEN, or server.auth_token_ssm_parameter)", envPrefix)
			}

			kv, closeKV, err := kvFromViper(ctx)
			if err != nil {
				return err
			}
			if closeKV != nil {
				defer func() { _ = closeKV(context.Background()) }()
			}
			memory := convmem.New(kv)
			if err := memory.Load(ctx); err != nil {
				return err
			}
			logger.Info("memory_loaded",
				"conversations", len(memory.Records()),
				"profiles", len(memory.Profiles()),
			)

			client, err := llmClientFromViper(ctx)
			if err != nil {
				return err
			}
			generator := generatorFromViper(client)

			driverBridge := bridge.New(logger, viper.GetDuration("bridge.call_timeout"))
			orchestrator := orchestrate.New(extract.New(), generator, memory, logger)

			var publisher scan.Publisher = events.NopPublisher{}
			if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
				kafkaPub, err := events.NewPublisher(brokers, viper.GetString("kafka.topic"), nil)
				if err != nil {
					return err
				}
				defer func() { _ = kafkaPub.Close() }()
				publisher = kafkaPub
				logger.Info("outcome_events_enabled", "topic", viper.GetString("kafka.topic"))
			}

			scheduler := scan.New(driverBridge, orchestrator, memory, publisher, logger, scan.Config{
				SettleDelay:          viper.GetDuration("scan.settle_delay"),
				IdleInterval:         viper.GetDuration("scan.idle_interval"),
				RepliedResetInterval: viper.GetDuration("scan.replied_reset_interval"),
			})
			if flagOrViperBool(cmd, "scan", "scan.enabled") {
				go func() {
					if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("scan_loop_exited", "error", err.Error())
					}
				}()
				defer scheduler.Stop()
			}

			gin.SetMode(gin.ReleaseMode)
			router := gin.New()
			router.Use(gin.Recovery())

			router.GET("/healthz", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"ok":               true,
					"driver_connected": driverBridge.Connected(),
					"time":             time.Now().Format(time.RFC3339Nano),
				})
			})
			// The browser driver cannot set an Authorization header on a
			// websocket upgrade; the socket stays on the loopback bind.
			router.GET("/bridge", gin.WrapH(driverBridge))

			api := router.Group("/", authMiddleware(auth))
			api.GET("/api/profiles", func(c *gin.Context) {
				c.JSON(http.StatusOK, memory.Profiles())
			})
			api.GET("/api/profiles/:id/dossier", func(c *gin.Context) {
				p, ok := memory.Profile(c.Param("id"))
				if !ok {
					c.JSON(http.StatusNotFound, gin.H{"error": "unknown conversation"})
					return
				}
				body, err := export.RenderDossier(p)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
			})
			api.GET("/api/conversations", func(c *gin.Context) {
				c.JSON(http.StatusOK, memory.Records())
			})
			api.GET("/export.csv", func(c *gin.Context) {
				c.Header("Content-Disposition", `attachment; filename="applicants.csv"`)
				c.Header("Content-Type", "text/csv; charset=utf-8")
				if err := export.WriteCSV(c.Writer, memory.Profiles()); err != nil {
					logger.Warn("export_csv_failed", "error", err.Error())
				}
			})
			api.POST("/api/evaluate", func(c *gin.Context) {
				var req struct {
					ConversationID string `json:"conversation_id"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
					return
				}
				req.ConversationID = strings.TrimSpace(req.ConversationID)
				if req.ConversationID == "" {
					c.JSON(http.StatusBadRequest, gin.H{"error": "missing conversation_id"})
					return
				}

				thread := surface.Thread{ID: req.ConversationID}
				if threads, err := driverBridge.ListThreads(c.Request.Context()); err == nil {
					for _, t := range threads {
						if t.ID == req.ConversationID {
							thread = t
							break
						}
					}
				}
				res, err := scheduler.FocusAndEvaluate(c.Request.Context(), thread)
				if err != nil {
					c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
					return
				}
				status := http.StatusOK
				if res.Outcome == orchestrate.OutcomeError {
					status = http.StatusBadGateway
				}
				c.JSON(status, res)
			})
			api.POST("/api/reset", func(c *gin.Context) {
				if err := memory.ResetAll(c.Request.Context()); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				logger.Info("memory_reset")
				c.JSON(http.StatusOK, gin.H{"ok": true})
			})

			addr := bind + ":" + strconv.Itoa(port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server_start", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				logger.Info("server_stopping")
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().String("server-bind", "127.0.0.1", "Bind address (default: 127.0.0.1).")
	cmd.Flags().Int("server-port", 8922, "HTTP port to listen on.")
	cmd.Flags().Bool("scan", true, "Run the background scan loop.")

	return cmd
}

func authMiddleware(token string) gin.HandlerFunc {
	want := "Bearer " + strings.TrimSpace(token)
	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
