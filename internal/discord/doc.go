// Package discord — минимальный клиент Discord для нужд бота: REST-сессия
// (сообщения с embed'ами, bulk-регистрация slash-команд, ответы на
// интеракции) и Gateway-подключение по WebSocket.
//
// Gateway держит heartbeat по интервалу из HELLO, разбирает dispatch-события
// READY и INTERACTION_CREATE и при обрыве переподключается с экспоненциальным
// backoff (1s..30s), заново проходя identify.
//
// События (колбэки поля структуры):
//   - OnConnecting, OnReady, OnInteraction, OnDisconnected, OnError.
package discord
