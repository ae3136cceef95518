package hub

import "github.com/MaryRatiary/back-rise/internal/model"

// MonitorService gathers hub statistics for the monitoring endpoint.
type MonitorService struct {
	hub *Hub
}

func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats snapshots connections, presence and room membership.
func (ms *MonitorService) GetStats() model.MonitorResponse {
	conns := ms.hub.presence.Connections()

	clients := make([]model.ClientInfo, 0, len(conns))
	for _, conn := range conns {
		c, ok := conn.(*Client)
		if !ok {
			continue
		}
		clients = append(clients, model.ClientInfo{
			ClientID: c.id,
			UserID:   c.userID,
			Rooms:    c.joinedRooms(),
		})
	}

	status := "healthy"
	if len(conns) == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			TotalConnections: ms.hub.presence.CountConnections(),
			TotalUsersOnline: ms.hub.presence.CountUsers(),
		},
		Rooms:       ms.getRoomStats(),
		Clients:     clients,
		OnlineUsers: ms.hub.presence.OnlineUsers(),
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	stats := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0),
	}

	for _, bucket := range ms.hub.shards {
		bucket.RLock()
		for room, members := range bucket.rooms {
			userIDs := make([]string, 0, len(members))
			for _, c := range members {
				userIDs = append(userIDs, c.userID)
			}

			stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
				Room:        room,
				TotalJoined: len(members),
				UserIDs:     userIDs,
			})
			stats.TotalRooms++
		}
		bucket.RUnlock()
	}

	return stats
}
