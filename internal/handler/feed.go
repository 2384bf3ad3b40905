package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"propshop/internal/apierror"
	"propshop/internal/feed"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// FeedHandler streams collection snapshots over Server-Sent Events. Each
// event carries the full fresh snapshot of the subscribed collection; the
// first event arrives immediately after connecting.
type FeedHandler struct{ hub *feed.Hub }

func NewFeedHandler(hub *feed.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

func (h *FeedHandler) Stream(c *gin.Context) {
	collection := c.Param("collection")

	sub, err := h.hub.Subscribe(c.Request.Context(), collection)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Unknown collection"))
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-sub.C:
			if !ok {
				return false
			}
			data, err := json.Marshal(snap.Data)
			if err != nil {
				log.Error().Str("collection", collection).Err(err).Msg("feed: marshal snapshot failed")
				return false
			}
			c.SSEvent(snap.Collection, string(data))
			return true
		}
	})
}
