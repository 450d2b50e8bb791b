package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"workspace-collab/collab"
	"workspace-collab/core"
	"workspace-collab/handlers/api/snapshots"
	"workspace-collab/handlers/websocket"
	"workspace-collab/identity"
	"workspace-collab/stores"
)

func setupRouter(store core.SnapshotStore, hub *collab.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "[::1]":
					return true
				}
			}

			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(cors.Handler(corsOptions))

	r.Route("/api/documents/{id}/snapshot", func(r chi.Router) {
		r.Get("/", snapshots.HandleGet(store))
		r.Put("/", snapshots.HandleSave(store))
	})

	r.Get("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		type roomEntry struct {
			ID    string `json:"id"`
			Users int    `json:"users"`
		}

		activeRooms := hub.ActiveRooms()
		roomList := make([]roomEntry, 0, len(activeRooms))
		for id, count := range activeRooms {
			roomList = append(roomList, roomEntry{ID: id, Users: count})
		}

		sort.Slice(roomList, func(i, j int) bool {
			if roomList[i].Users == roomList[j].Users {
				return roomList[i].ID < roomList[j].ID
			}
			return roomList[i].Users > roomList[j].Users
		})

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(roomList); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	})

	return r
}

func waitForShutdown(ioo *socketio.Server, hub *collab.Hub) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ioo.Close(nil)

	// Flush buffered snapshots before exit; pending debounce timers are
	// released here.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close(ctx)

	os.Exit(0)
}

func main() {
	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":3002", "Set the server listen address")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	store := stores.GetStore()

	var resolver core.IdentityResolver
	var registrar websocket.TokenRegistrar
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		jwtResolver := identity.NewJWTResolver(secret)
		resolver = jwtResolver
		registrar = jwtResolver
		logrus.Info("JWT identity resolution enabled")
	} else {
		resolver = identity.None()
		logrus.Warn("JWT_SECRET not set; all participants are anonymous")
	}

	coalescer := collab.NewCoalescer(store, collab.DefaultDebounce)
	hub := collab.NewHub(resolver, coalescer)

	r := setupRouter(store, hub)
	ioo := websocket.SetupSocketIO(hub, registrar)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddr).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, hub)
}
