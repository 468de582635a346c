package canvas

const summaryTemplate = `# 📊 Resumen de Conversación
*Generado automáticamente por Dona AI*

## 🎯 Puntos Clave
%s

## 📝 Decisiones Tomadas
%s

## ✅ Tareas Identificadas
%s

## 🔗 Recursos Mencionados
%s

---
*Última actualización: %s*
*Canal: %s*
`

const knowledgeTemplate = `# 🧠 %s - Base de Conocimiento
*Documentación colaborativa mantenida por el equipo*

## 📖 Descripción
%s

## 🔧 Cómo Usar
%s

## 📚 Recursos
%s

## 💡 Tips y Mejores Prácticas
%s

## 🏷️ Tags
%s

---
*Creado: %s*
*Última actualización: %s*
*Contribuidores: %s*
`

const projectTemplate = `# 🚀 %s
*Documentación del proyecto*

## 🎯 Objetivo
%s

## 📋 Requisitos
%s

## 🏗️ Arquitectura
%s

## 📊 Estado Actual
%s

## 🔄 Próximos Pasos
%s

## 👥 Equipo
%s

---
*Inicio: %s*
`

const meetingTemplate = `# 📅 %s
*%s*

## 👥 Participantes
%s

## 📋 Agenda
%s

## 💬 Puntos Discutidos
%s

## ✅ Decisiones
%s

## 📝 Acciones
%s

## 🔄 Próxima Reunión
*(por agendar)*

---
*Facilitador: %s*
`
