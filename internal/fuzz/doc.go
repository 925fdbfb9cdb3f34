// Package fuzztests houses Go fuzz harnesses for the guard line classifier
// and the replay engine. They check that arbitrary trace bytes never panic,
// never hang, and that every tree the builder accepts satisfies the arena
// invariants.
//
// Назначение: гонять произвольные строки через guard.Classify и целые
// файлы через exectree.BuildReader.
//
// Не делает: сборку леса из каталога, анализы, CLI.
package fuzztests
