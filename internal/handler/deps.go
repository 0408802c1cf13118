package handler

import (
	"github.com/VisalRazaZaidi/SmartComms/internal/app/chat"
	"github.com/VisalRazaZaidi/SmartComms/internal/app/storage"
	"github.com/VisalRazaZaidi/SmartComms/internal/app/store"
	"github.com/VisalRazaZaidi/SmartComms/internal/app/suggest"
	"github.com/VisalRazaZaidi/SmartComms/internal/configs"
)

// AppDeps bundles the collaborators every handler may need. Constructed once
// in main and passed down explicitly.
type AppDeps struct {
	Gateway *chat.Gateway
	Store   *store.Store
	Storage storage.Service
	Suggest *suggest.Client
	Config  *configs.AppConfig
}
