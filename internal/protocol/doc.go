// Package protocol describes the frames exchanged with the duel server.
//
// Client -> Server
// join:
//   playerName: string
//
// attack:
//   body: string // "HEAD" | "CHEST" | "LEFT_ARM" | ...
//
// chat:
//   message: string
//
// joinLobby:
//   playerName: string
//
// joinDuel:
//   gameCode: string
//   playerName: string
//
// Server -> Client
// INIT:                playerName, playerUnitName
// join|reconnect|info: message
// error:               message
// bothSelected:        {}
// duelResult:          resultText, targetPlayer
// BODY_PART_DESTROYED: player, bodyPart, message, playerUnitName
// UNITS_STATE:         units: [{playerId, player, unitName, imagePath, hp, hpMax, deflectionCurrent}]
// chat:                message (may be a JSON encoded round result), playerName|sender, text
// LOBBY_STATE:         rooms: [{gameCode, players: [{name, imagePath, hp, hpMax}]}]
package protocol
