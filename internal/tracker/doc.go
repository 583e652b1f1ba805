// Package tracker — «склейка» вокруг riotapi и discord, реализующая
// монитор отслеживаемых TFT-игроков. Бот:
//   - раз в интервал опрашивает Riot API по каждому игроку из ростера;
//   - детектит переходы (зашёл в игру, доиграл матч) и шлёт уведомления;
//   - держит в канале один embed-лидерборд и правит его на месте;
//   - обрабатывает slash-команды /track и /untrack;
//   - хранит ростер JSON-снапшотом на диске (Store), сохраняя после
//     каждой мутации.
//
// Жизненный цикл:
//   - Создать бота через New().
//   - Передать клиентов: SetDiscord(...), SetRiot(...), SetChannels(...),
//     (опционально) SetPollInterval(...).
//   - UseStore("database.json") — подключит ростер.
//   - Запустить Start() и остановить Stop().
//
// Единственный путь мутации записей игроков — цикл монитора (runCycle);
// команды только добавляют и удаляют записи целиком. Ошибки апстрима,
// персиста и доставки уведомлений не фатальны: они логируются, а цикл
// продолжается — следующий тик сам всё повторит.
package tracker
