// Package riotapi — типизированный клиент Riot TFT API.
// API разнесено по двум кластерам: account и match живут на «региональном»
// хосте (europe, americas...), а spectator, summoner и league — на
// «платформенном» (eun1, euw1...). Клиент держит оба селектора.
//
// Все методы идемпотентные read-only запросы. 404 возвращается как
// ErrNotFound, чтобы вызывающий мог отличить «данных нет» от проблем сети,
// но политика монитора для обоих случаев одна — считать, что ничего
// не изменилось, и попробовать в следующем цикле.
package riotapi
