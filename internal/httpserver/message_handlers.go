package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"unimarket/internal/service"
	"unimarket/internal/ws"
)

var validate = validator.New()

type sendMessageRequest struct {
	ReceiverID int64   `json:"receiver_id" validate:"required"`
	Content    string  `json:"content" validate:"required,max=5000"`
	ListingID  *int64  `json:"listing_id"`
	ImageURL   *string `json:"image_url" validate:"omitempty,url"`
}

func handleSendMessage(msgSvc *service.MessageService, dispatcher *ws.Dispatcher, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "receiver_id and content are required")
			return
		}

		msg, err := msgSvc.Send(r.Context(), caller.ID, service.SendInput{
			ReceiverID: req.ReceiverID,
			Content:    req.Content,
			ListingID:  req.ListingID,
			ImageURL:   req.ImageURL,
		})
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		// Fan-out is best-effort and decoupled from the response: the sender
		// gets 201 whether or not the receiver is connected.
		dispatcher.NewMessage(msg)

		writeData(w, http.StatusCreated, msg)
	}
}

func handleListConversations(convSvc *service.ConversationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		summaries, err := convSvc.ListConversations(r.Context(), caller.ID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		// the aggregator's map order is unstable; present newest first
		sort.Slice(summaries, func(i, j int) bool {
			return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
		})
		writeData(w, http.StatusOK, summaries)
	}
}

func handleUnreadCount(convSvc *service.ConversationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		count, err := convSvc.UnreadTotal(r.Context(), caller.ID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, map[string]int{"unread_count": count})
	}
}

func handleThread(convSvc *service.ConversationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		otherID, err := strconv.ParseInt(chi.URLParam(r, "otherUserID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		msgs, err := convSvc.ListThread(r.Context(), caller.ID, otherID, page, limit)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, msgs)
	}
}

func handleListingThread(convSvc *service.ConversationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		listingID, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid listing id")
			return
		}

		listing, grouped, err := convSvc.ListListingThread(r.Context(), caller.ID, listingID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{
			"listing": listing,
			"threads": grouped,
		})
	}
}

func handleMarkRead(msgSvc *service.MessageService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		messageID := chi.URLParam(r, "messageID")
		if err := msgSvc.MarkRead(r.Context(), messageID, caller.ID); err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeMessage(w, http.StatusOK, "message marked as read")
	}
}

func handleMarkConversationRead(msgSvc *service.MessageService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		otherID, err := strconv.ParseInt(chi.URLParam(r, "otherUserID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		count, err := msgSvc.MarkConversationRead(r.Context(), otherID, caller.ID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, map[string]int64{"updated_count": count})
	}
}

func handleDeleteMessage(msgSvc *service.MessageService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := requireUser(w, r)
		if caller == nil {
			return
		}

		messageID := chi.URLParam(r, "messageID")
		if err := msgSvc.Delete(r.Context(), messageID, caller.ID); err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeMessage(w, http.StatusOK, "message deleted")
	}
}
