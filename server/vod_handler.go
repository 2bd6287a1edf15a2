package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chengxue2020/Cat-ports/core/video"
	"github.com/chengxue2020/Cat-ports/logger"
)

// VodHandler 影视源接口
type VodHandler struct {
	vod *video.Ikanbot
}

// RegisterVodRoutes 注册影视源路由
func RegisterVodRoutes(router *mux.Router, vod *video.Ikanbot) {
	h := &VodHandler{vod: vod}
	sub := router.PathPrefix("/api/vod").Subrouter()
	sub.HandleFunc("/home", h.HomeHandler).Methods(http.MethodGet)
	sub.HandleFunc("/category", h.CategoryHandler).Methods(http.MethodGet)
	sub.HandleFunc("/detail", h.DetailHandler).Methods(http.MethodGet)
	sub.HandleFunc("/search", h.SearchHandler).Methods(http.MethodGet)
	sub.HandleFunc("/play", h.PlayHandler).Methods(http.MethodGet)
	sub.HandleFunc("/proxy", h.ProxyHandler).Methods(http.MethodGet)
}

func pageParam(r *http.Request) int {
	pg, err := strconv.Atoi(r.URL.Query().Get("pg"))
	if err != nil {
		return 1
	}
	return pg
}

func (h *VodHandler) fail(w http.ResponseWriter, op string, err error) {
	logger.Warn("[Vod] 请求失败", logger.String("op", op), logger.ErrorField(err))
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

// HomeHandler GET /api/vod/home
func (h *VodHandler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.vod.Home(r.Context())
	if err != nil {
		h.fail(w, "home", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CategoryHandler GET /api/vod/category?tid=&pg=&tag=
func (h *VodHandler) CategoryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("tid") == "" && q.Get("tag") == "" {
		http.Error(w, "tid is required", http.StatusBadRequest)
		return
	}
	res, err := h.vod.Category(r.Context(), q.Get("tid"), pageParam(r), q.Get("tag"))
	if err != nil {
		h.fail(w, "category", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DetailHandler GET /api/vod/detail?id=
func (h *VodHandler) DetailHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	res, err := h.vod.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, "detail", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchHandler GET /api/vod/search?wd=&pg=
func (h *VodHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	wd := r.URL.Query().Get("wd")
	if wd == "" {
		http.Error(w, "wd is required", http.StatusBadRequest)
		return
	}
	res, err := h.vod.Search(r.Context(), wd, pageParam(r))
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PlayHandler GET /api/vod/play?flag=&id=
func (h *VodHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.vod.Play(q.Get("flag"), q.Get("id")))
}

// ProxyHandler GET /api/vod/proxy?url=img/<base64>
func (h *VodHandler) ProxyHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.vod.Proxy(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		h.fail(w, "proxy", err)
		return
	}
	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.WriteHeader(res.Code)
	_, _ = w.Write(res.Content)
}
